package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/fadedpez/playtimeshop/internal/config"
	"github.com/fadedpez/playtimeshop/pkg/catalog"
	"github.com/fadedpez/playtimeshop/pkg/entities"
	"github.com/spf13/cobra"
)

func newCatalogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Inspect or seed the offer catalog",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Write the default catalog if none exists",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			_, seeded, err := catalog.LoadOrDefault(cfg.CatalogPath)
			if err != nil {
				return err
			}
			if seeded {
				fmt.Fprintf(cmd.OutOrStdout(), "Wrote default catalog to %s\n", cfg.CatalogPath)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "Catalog %s already exists\n", cfg.CatalogPath)
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "Print the offers players can buy",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			offers, err := catalog.Load(cfg.CatalogPath)
			if os.IsNotExist(err) {
				fmt.Fprintf(cmd.OutOrStdout(), "%s does not exist yet, showing defaults\n", cfg.CatalogPath)
				offers, err = catalog.Default(), nil
			}
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s\n\n", cfg.RewardRate())
			return printOffers(cmd.OutOrStdout(), offers.Offers())
		},
	})

	return cmd
}

func printOffers(out io.Writer, offers []entities.Offer) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tKIND\tQUANTITY\tDESCRIPTION\tCOST\tGRANT")
	for _, offer := range offers {
		grant := ""
		switch {
		case offer.Item != nil:
			grant = fmt.Sprintf("item %d", offer.Item.ItemID)
		case offer.Stat != nil:
			grant = fmt.Sprintf("%s up to %d", offer.Stat.Kind, offer.Stat.MaxStat)
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%d\t%s\n",
			offer.Name, offer.Kind, offer.Quantity, offer.Description, offer.Cost, grant)
	}
	return w.Flush()
}

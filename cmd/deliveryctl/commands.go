package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"floreria/internal/delivery"
	"floreria/internal/models"
	"floreria/internal/utils"

	"github.com/spf13/cobra"
)

type rootOptions struct {
	catalogFile string
	timezone    string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "deliveryctl",
		Short: "Inspect delivery catalogs and quote fees offline",
		Long: `deliveryctl loads a delivery catalog (the built-in Santiago catalog by
default) and runs the pricing and scheduling engine against it.

Use it to validate a catalog before deploying it, or to check what the
API would answer for a commune and date.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVarP(&opts.catalogFile, "catalog", "c", "", "Catalog YAML file (default: built-in catalog)")
	root.PersistentFlags().StringVar(&opts.timezone, "timezone", utils.DefaultTimeZone, "IANA time zone for delivery dates")

	root.AddCommand(
		newCatalogCmd(opts),
		newFeeCmd(opts),
		newSlotsCmd(opts),
		newCommunesCmd(opts),
	)
	return root
}

func (o *rootOptions) engine() (*delivery.Engine, error) {
	catalog := delivery.DefaultCatalog()
	if o.catalogFile != "" {
		var err error
		catalog, err = delivery.LoadCatalogFile(o.catalogFile)
		if err != nil {
			return nil, err
		}
	}
	return delivery.NewEngine(catalog, delivery.WithLocation(utils.LoadLocation(o.timezone))), nil
}

func (o *rootOptions) date(value string, loc *time.Location) (time.Time, error) {
	if value == "" {
		return time.Now().In(loc), nil
	}
	return utils.ParseDeliveryDate(value, loc)
}

func newCatalogCmd(opts *rootOptions) *cobra.Command {
	catalogCmd := &cobra.Command{
		Use:   "catalog",
		Short: "Work with catalog files",
	}

	validateCmd := &cobra.Command{
		Use:   "validate [file]",
		Short: "Validate a catalog file and report every problem found",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := opts.catalogFile
			if len(args) == 1 {
				path = args[0]
			}
			if path == "" {
				return fmt.Errorf("no catalog file given")
			}

			catalog, err := delivery.LoadCatalogFile(path)
			if err != nil {
				return fmt.Errorf("%s is invalid:\n%w", path, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: OK (%d zones, %d communes, %d delivery types)\n",
				path, len(catalog.Zones()), len(catalog.Communes()), len(catalog.DeliveryTypes()))
			return nil
		},
	}

	catalogCmd.AddCommand(validateCmd)
	return catalogCmd
}

func newFeeCmd(opts *rootOptions) *cobra.Command {
	var (
		commune      string
		total        int64
		deliveryType string
		date         string
	)

	cmd := &cobra.Command{
		Use:   "fee",
		Short: "Calculate the delivery fee for a commune",
		Example: `  deliveryctl fee --commune Providencia --total 25000
  deliveryctl fee --commune "Las Condes" --total 50000 --type express --date 2025-02-14`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := opts.engine()
			if err != nil {
				return err
			}
			at, err := opts.date(date, engine.Location())
			if err != nil {
				return err
			}

			fee, err := engine.CalculateDeliveryFee(commune, total, models.DeliveryTypeCode(deliveryType), at)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), fee)
		},
	}

	cmd.Flags().StringVar(&commune, "commune", "", "Commune name")
	cmd.Flags().Int64Var(&total, "total", 0, "Order total in the catalog currency")
	cmd.Flags().StringVar(&deliveryType, "type", string(models.DeliveryTypeStandard), "Delivery type code")
	cmd.Flags().StringVar(&date, "date", "", "Delivery date, YYYY-MM-DD (default: today)")
	_ = cmd.MarkFlagRequired("commune")
	return cmd
}

func newSlotsCmd(opts *rootOptions) *cobra.Command {
	var date string

	cmd := &cobra.Command{
		Use:   "slots",
		Short: "Show delivery slots for a date",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := opts.engine()
			if err != nil {
				return err
			}
			at, err := opts.date(date, engine.Location())
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), engine.GetAvailableSlots(at))
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "Delivery date, YYYY-MM-DD (default: today)")
	return cmd
}

func newCommunesCmd(opts *rootOptions) *cobra.Command {
	var zone string

	cmd := &cobra.Command{
		Use:   "communes",
		Short: "List communes with delivery",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := opts.engine()
			if err != nil {
				return err
			}

			listings := engine.ListAvailableCommunes()
			if zone != "" {
				filtered := listings[:0]
				for _, l := range listings {
					if strings.EqualFold(l.ZoneID, zone) {
						filtered = append(filtered, l)
					}
				}
				listings = filtered
			}
			return writeJSON(cmd.OutOrStdout(), listings)
		},
	}

	cmd.Flags().StringVar(&zone, "zone", "", "Only list communes of this zone id")
	return cmd
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

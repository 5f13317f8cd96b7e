package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"propsim/internal/models"
)

var propertyCmd = &cobra.Command{
	Use:   "property",
	Short: "Manage saved properties",
}

var propertyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved properties",
	RunE:  runPropertyList,
}

var propertyUpsertFlags struct {
	id        int64
	address   string
	mls       string
	latitude  float64
	longitude float64
	beds      int
	baths     int
	sqft      int
	yearBuilt int
	notes     string
}

var propertyUpsertCmd = &cobra.Command{
	Use:   "upsert",
	Short: "Create a property, or replace one by id",
	Long: `Creates a property, or with --id replaces every stored field of an
existing one. Listing facts left unset are stored as unknown.`,
	RunE: runPropertyUpsert,
}

var propertyDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a property and everything under it",
	Args:  cobra.ExactArgs(1),
	RunE:  runPropertyDelete,
}

func init() {
	propertyCmd.AddCommand(propertyListCmd)
	propertyCmd.AddCommand(propertyUpsertCmd)
	propertyCmd.AddCommand(propertyDeleteCmd)

	f := propertyUpsertCmd.Flags()
	f.Int64Var(&propertyUpsertFlags.id, "id", 0, "Property id to replace (omit to create)")
	f.StringVar(&propertyUpsertFlags.address, "address", "", "Street address (required)")
	f.StringVar(&propertyUpsertFlags.mls, "mls", "", "MLS listing number")
	f.Float64Var(&propertyUpsertFlags.latitude, "latitude", 0, "Latitude")
	f.Float64Var(&propertyUpsertFlags.longitude, "longitude", 0, "Longitude")
	f.IntVar(&propertyUpsertFlags.beds, "beds", 0, "Bedrooms")
	f.IntVar(&propertyUpsertFlags.baths, "baths", 0, "Bathrooms")
	f.IntVar(&propertyUpsertFlags.sqft, "sqft", 0, "Interior square feet")
	f.IntVar(&propertyUpsertFlags.yearBuilt, "year-built", 0, "Year built")
	f.StringVar(&propertyUpsertFlags.notes, "notes", "", "Free-form notes")
	_ = propertyUpsertCmd.MarkFlagRequired("address")
}

func runPropertyList(cmd *cobra.Command, _ []string) error {
	a, err := bootstrap()
	if err != nil {
		return err
	}
	defer a.Close()

	list, err := a.repo.ListProperties(cmd.Context())
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if len(list) == 0 {
		fmt.Fprintln(out, "No properties saved.")
		return nil
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tADDRESS\tMLS\tBEDS\tBATHS\tSQFT\tNOTES")
	for _, p := range list {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
			p.ID, p.Address, p.MLSNumber,
			fmtIntPtr(p.Beds), fmtIntPtr(p.Baths), fmtIntPtr(p.Sqft), p.Notes)
	}
	return tw.Flush()
}

func runPropertyUpsert(cmd *cobra.Command, _ []string) error {
	a, err := bootstrap()
	if err != nil {
		return err
	}
	defer a.Close()

	p := &models.Property{
		ID:        propertyUpsertFlags.id,
		Address:   propertyUpsertFlags.address,
		MLSNumber: propertyUpsertFlags.mls,
		Notes:     propertyUpsertFlags.notes,
	}
	fl := cmd.Flags()
	if fl.Changed("latitude") {
		p.Latitude = &propertyUpsertFlags.latitude
	}
	if fl.Changed("longitude") {
		p.Longitude = &propertyUpsertFlags.longitude
	}
	if fl.Changed("beds") {
		p.Beds = &propertyUpsertFlags.beds
	}
	if fl.Changed("baths") {
		p.Baths = &propertyUpsertFlags.baths
	}
	if fl.Changed("sqft") {
		p.Sqft = &propertyUpsertFlags.sqft
	}
	if fl.Changed("year-built") {
		p.YearBuilt = &propertyUpsertFlags.yearBuilt
	}

	id, err := a.repo.UpsertProperty(cmd.Context(), p)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Property #%d saved\n", id)
	return nil
}

func runPropertyDelete(cmd *cobra.Command, args []string) error {
	id, err := parseID(args[0], "property id")
	if err != nil {
		return err
	}
	a, err := bootstrap()
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.repo.DeleteProperty(cmd.Context(), id); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Property #%d deleted (with its scenarios and runs)\n", id)
	return nil
}

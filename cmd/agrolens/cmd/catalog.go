package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/spektr-org/agrolens/catalog"
	"github.com/spektr-org/agrolens/render"
)

var catalogJSON bool

// catalogCmd lists known domains, commodities and countries
var catalogCmd = &cobra.Command{
	Use:   "catalog [domains|commodities|countries]",
	Short: "List the domains, commodities and countries agrolens knows",
	Long: `List catalogue entries with their FAOSTAT codes.

Names and codes from the catalogue are accepted wherever a filter is given,
so --country 231 and --country usa both select USA.`,
	Args:      cobra.MaximumNArgs(1),
	ValidArgs: []string{"domains", "commodities", "countries"},
	RunE:      runCatalog,
}

func init() {
	catalogCmd.Flags().BoolVar(&catalogJSON, "json", false, "print the catalogue as JSON")
}

func runCatalog(cmd *cobra.Command, args []string) error {
	cat, err := catalog.Load()
	if err != nil {
		return err
	}
	w := cmd.OutOrStdout()
	if catalogJSON {
		return writeJSON(w, cat, true)
	}

	section := ""
	if len(args) == 1 {
		section = strings.ToLower(args[0])
	}

	if section == "" || section == "domains" {
		table := &render.TableData{
			Title: "Domains",
			Columns: []render.Column{
				{Label: "Domain"}, {Label: "Code"}, {Label: "Metrics"},
			},
		}
		for _, d := range cat.Domains {
			table.Rows = append(table.Rows, []string{d.Name, d.Code, strings.Join(d.Metrics, ", ")})
		}
		if err := writeSection(cmd, table); err != nil {
			return err
		}
	}
	if section == "" || section == "commodities" {
		if err := writeSection(cmd, groupTable("Commodities", "Type", "Item", cat.Commodities)); err != nil {
			return err
		}
	}
	if section == "" || section == "countries" {
		if err := writeSection(cmd, groupTable("Countries", "Region", "Country", cat.Countries)); err != nil {
			return err
		}
	}
	if section != "" && section != "domains" && section != "commodities" && section != "countries" {
		return fmt.Errorf("unknown catalog section %q", section)
	}
	return nil
}

func groupTable(title, groupLabel, nameLabel string, groups []catalog.Group) *render.TableData {
	table := &render.TableData{
		Title: title,
		Columns: []render.Column{
			{Label: groupLabel}, {Label: nameLabel}, {Label: "Code", Align: "right"},
		},
	}
	for _, g := range groups {
		for _, e := range g.Items {
			table.Rows = append(table.Rows, []string{g.Group, e.Name, strconv.Itoa(e.Code)})
		}
	}
	return table
}

func writeSection(cmd *cobra.Command, table *render.TableData) error {
	fmt.Fprintln(cmd.OutOrStdout(), heading(table.Title))
	if err := render.WriteTable(cmd.OutOrStdout(), table); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout())
	return nil
}

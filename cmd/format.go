package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/arvindk/medcompare/internal/models"
)

// printResultTables prints the combined search result grouped by pharmacy.
func printResultTables(result *models.CombinedResult) {
	sections := []struct {
		title    string
		products []models.Product
	}{
		{"1mg", result.Data.OneMg},
		{"Apollo 24/7", result.Data.Apollo},
		{"PharmEasy", result.Data.PharmEasy},
		{"TrueMeds", result.Data.Truemed},
		{"NetMeds", result.Data.Netmed},
	}

	for _, sec := range sections {
		fmt.Fprintf(os.Stdout, "== %s ==\n", sec.title)
		if len(sec.products) == 0 {
			fmt.Fprintln(os.Stdout, "  (no results)")
			fmt.Fprintln(os.Stdout)
			continue
		}
		printProductsTable(sec.products)
		fmt.Fprintln(os.Stdout)
	}

	if result.Meta != nil && len(result.Meta.Errors) > 0 {
		fmt.Fprintln(os.Stdout, "Errors:")
		for src, msg := range result.Meta.Errors {
			fmt.Fprintf(os.Stdout, "  %s: %s\n", src, msg)
		}
	}
}

// printProductsTable prints products in a human-friendly card layout.
func printProductsTable(products []models.Product) {
	for i, p := range products {
		name := p.Name
		if p.Availability != "" {
			name += " [" + p.Availability + "]"
		}
		fmt.Fprintf(os.Stdout, " %d. %s\n", i+1, name)

		// Price line with optional MRP and discount
		priceLine := "    Price: " + formatPrice(p.Price)
		if p.MRP != nil && p.Price != nil && *p.MRP > *p.Price {
			priceLine += fmt.Sprintf("  (MRP %s", formatPrice(p.MRP))
			if d := formatDiscount(p.Discount); d != "" {
				priceLine += ", -" + d
			}
			priceLine += ")"
		}
		fmt.Fprintln(os.Stdout, priceLine)

		if p.PackSize != "" {
			fmt.Fprintf(os.Stdout, "    Pack: %s\n", p.PackSize)
		}
		if p.Manufacturer != "" {
			fmt.Fprintf(os.Stdout, "    Mfr: %s\n", p.Manufacturer)
		}
		if p.Composition != "" {
			fmt.Fprintf(os.Stdout, "    Salt: %s\n", p.Composition)
		}
		if p.Delivery != "" {
			fmt.Fprintf(os.Stdout, "    %s\n", p.Delivery)
		}
		if p.PrescriptionRequired != nil && *p.PrescriptionRequired {
			fmt.Fprintln(os.Stdout, "    Rx required")
		}
		if p.URL != "" {
			fmt.Fprintf(os.Stdout, "    %s\n", p.URL)
		}
	}
}

// formatPrice formats a rupee amount with Indian digit grouping,
// e.g. "₹1,23,456.50".
func formatPrice(v *float64) string {
	if v == nil {
		return "n/a"
	}
	s := fmt.Sprintf("%.2f", *v)
	whole, frac, _ := strings.Cut(s, ".")

	if len(whole) > 3 {
		head, tail := whole[:len(whole)-3], whole[len(whole)-3:]
		var parts []string
		for len(head) > 2 {
			parts = append([]string{head[len(head)-2:]}, parts...)
			head = head[:len(head)-2]
		}
		parts = append([]string{head}, parts...)
		whole = strings.Join(parts, ",") + "," + tail
	}
	return "₹" + whole + "." + frac
}

// formatDiscount renders the per-source discount value, which may be a
// number or an already-formatted string.
func formatDiscount(d any) string {
	switch t := d.(type) {
	case nil:
		return ""
	case string:
		return t
	case int:
		return fmt.Sprintf("%d%%", t)
	case float64:
		return fmt.Sprintf("%v%%", t)
	default:
		return fmt.Sprintf("%v", t)
	}
}

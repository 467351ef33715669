// cmd/api/preview.go
package main

import (
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"

	"fumo-economy/internal/market"
)

var (
	accent  = color.New(color.FgCyan, color.Bold)
	ultra   = color.New(color.FgMagenta, color.Bold)
	high    = color.New(color.FgYellow, color.Bold)
	neutral = color.New(color.FgHiWhite)
	muted   = color.New(color.FgHiBlack)
)

// printShop renders a shop as a table, tinting high and ultra tier rows.
func printShop(w io.Writer, entry market.Entry, table market.RarityTable, coinsPerGem int64) {
	currency := entry.Kind.Currency()
	accent.Fprintf(w, "%s shop for %s\n", entry.Kind, entry.UserID)
	muted.Fprintf(w, "resets at %s\n\n", entry.ResetTime.Format(time.RFC3339))

	if len(entry.Items) == 0 {
		neutral.Fprintln(w, "(empty)")
		return
	}
	for i, item := range entry.Items {
		c := neutral
		switch {
		case table.IsUltra(item.Rarity):
			c = ultra
		case table.IsHigh(item.Rarity):
			c = high
		}
		price := item.Price(currency, 1, coinsPerGem)
		c.Fprintf(w, "%2d  %-28s %-14s %12s %-5s stock %d\n",
			i, item.Name, item.Rarity, price.String(), currency, item.Stock)
	}
	fmt.Fprintln(w)
}

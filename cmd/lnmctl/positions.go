package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"lnmarkets-api/pkg/exchange"
)

func newListCmd(rc *rootConfig) *cobra.Command {
	var filter string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List positions (running, closed, all, or unfiltered)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := exchange.PositionFilter(strings.ToLower(filter))
			switch f {
			case exchange.FilterNone, exchange.FilterOpen, exchange.FilterRunning, exchange.FilterClosed, exchange.FilterAll:
			default:
				return fmt.Errorf("unknown filter %q", filter)
			}
			p, err := rc.provider()
			if err != nil {
				return err
			}
			positions, err := p.GetPositions(cmd.Context(), f)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), positions)
		},
	}
	cmd.Flags().StringVar(&filter, "filter", "running", "running|open|closed|all, empty for unfiltered")
	return cmd
}

func newOpenCmd(rc *rootConfig) *cobra.Command {
	var (
		side, kind                              string
		leverage, quantity, price, stop, target float64
		margin                                  int64
	)
	cmd := &cobra.Command{
		Use:   "open",
		Short: "Open a position",
		Example: `  lnmctl open --side buy --leverage 2 --margin 1000
  lnmctl open --side sell --type limit --price 40000 --leverage 5 --quantity 10`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			order := exchange.Order{Leverage: leverage}
			switch strings.ToLower(side) {
			case "buy", "b", "long":
				order.Side = exchange.OrderSideBuy
			case "sell", "s", "short":
				order.Side = exchange.OrderSideSell
			default:
				return fmt.Errorf("unknown side %q", side)
			}
			switch strings.ToLower(kind) {
			case "market", "m":
				order.Type = exchange.OrderTypeMarket
			case "limit", "l":
				order.Type = exchange.OrderTypeLimit
			default:
				return fmt.Errorf("unknown type %q", kind)
			}
			flags := cmd.Flags()
			if flags.Changed("margin") {
				order.Margin = exchange.Ptr(margin)
			}
			if flags.Changed("quantity") {
				order.Quantity = exchange.Ptr(quantity)
			}
			if flags.Changed("price") {
				order.Price = exchange.Ptr(price)
			}
			if flags.Changed("stoploss") {
				order.Stoploss = exchange.Ptr(stop)
			}
			if flags.Changed("takeprofit") {
				order.Takeprofit = exchange.Ptr(target)
			}

			p, err := rc.provider()
			if err != nil {
				return err
			}
			pos, err := p.OpenPosition(cmd.Context(), order)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), pos)
		},
	}
	f := cmd.Flags()
	f.StringVar(&side, "side", "", "buy|sell (required)")
	f.StringVar(&kind, "type", "market", "market|limit")
	f.Float64Var(&leverage, "leverage", 1, "leverage multiplier")
	f.Int64Var(&margin, "margin", 0, "margin in satoshis")
	f.Float64Var(&quantity, "quantity", 0, "quantity in contracts")
	f.Float64Var(&price, "price", 0, "limit price")
	f.Float64Var(&stop, "stoploss", 0, "stoploss price")
	f.Float64Var(&target, "takeprofit", 0, "takeprofit price")
	_ = cmd.MarkFlagRequired("side")
	return cmd
}

func newUpdateCmd(rc *rootConfig) *cobra.Command {
	return &cobra.Command{
		Use:   "update PID stoploss|takeprofit VALUE",
		Short: "Move the stoploss or takeprofit of a running position",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			value, err := strconv.ParseFloat(args[2], 64)
			if err != nil {
				return fmt.Errorf("invalid value %q: %w", args[2], err)
			}
			p, err := rc.provider()
			if err != nil {
				return err
			}
			pos, err := p.UpdatePosition(cmd.Context(), args[0], exchange.UpdateField(strings.ToLower(args[1])), value)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), pos)
		},
	}
}

func newCloseCmd(rc *rootConfig) *cobra.Command {
	return &cobra.Command{
		Use:   "close PID",
		Short: "Close a running position",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := rc.provider()
			if err != nil {
				return err
			}
			pos, err := p.ClosePosition(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), pos)
		},
	}
}

func newCloseSideCmd(rc *rootConfig, use string, side exchange.OrderSide) *cobra.Command {
	label := "long"
	if side == exchange.OrderSideSell {
		label = "short"
	}
	return &cobra.Command{
		Use:   use,
		Short: fmt.Sprintf("Close every running %s position, one at a time", label),
		Long: `Positions are closed sequentially. The first failure stops the run;
positions closed before it stay closed and their pl is not reported.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := rc.provider()
			if err != nil {
				return err
			}
			pl, err := p.CloseSide(cmd.Context(), side)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), map[string]decimal.Decimal{"pl": pl})
		},
	}
}

func newCloseAllCmd(rc *rootConfig) *cobra.Command {
	return &cobra.Command{
		Use:   "close-all",
		Short: "Close every running position in one request",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := rc.provider()
			if err != nil {
				return err
			}
			result, err := p.CloseAll(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), map[string]any{"pl": result.Pl, "positions": result.Positions})
		},
	}
}

func newAmountCmd(rc *rootConfig, use, short string) *cobra.Command {
	return &cobra.Command{
		Use:   use + " PID AMOUNT",
		Short: short,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := strconv.ParseInt(args[1], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid amount %q: %w", args[1], err)
			}
			p, err := rc.provider()
			if err != nil {
				return err
			}
			var pos *exchange.Position
			if use == "add-margin" {
				pos, err = p.AddMargin(cmd.Context(), args[0], amount)
			} else {
				pos, err = p.CashIn(cmd.Context(), args[0], amount)
			}
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), pos)
		},
	}
}

func newCancelCmd(rc *rootConfig) *cobra.Command {
	return &cobra.Command{
		Use:   "cancel PID",
		Short: "Cancel an unfilled limit order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := rc.provider()
			if err != nil {
				return err
			}
			pos, err := p.CancelPosition(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), pos)
		},
	}
}

func newPLCmd(rc *rootConfig) *cobra.Command {
	return &cobra.Command{
		Use:   "pl",
		Short: "Show realized and unrealized profit and margin withheld",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := rc.provider()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			realized, err := p.RealizedProfit(ctx)
			if err != nil {
				return err
			}
			unrealized, err := p.UnrealizedProfit(ctx)
			if err != nil {
				return err
			}
			margin, err := p.MarginWithheld(ctx)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), map[string]decimal.Decimal{
				"realized":        realized,
				"unrealized":      unrealized,
				"margin_withheld": margin,
			})
		},
	}
}

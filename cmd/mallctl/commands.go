package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"mall-be/internal/auth"
	"mall-be/internal/order"
	"mall-be/internal/payment"
	"mall-be/internal/product"
	"mall-be/internal/utils"

	"github.com/spf13/cobra"
)

// DefaultFeedURL is the public catalog dump used to seed a fresh database.
const DefaultFeedURL = "https://raw.githubusercontent.com/pyhub-kr/dump-data/main/django-shopping-with-iamport/product-list.json"

type catalogLoader interface {
	Load(ctx context.Context, url string) (*product.LoadResult, error)
}

type deps struct {
	orders   order.Service
	payments payment.Service
	products product.Service
	loader   catalogLoader
}

// newRootCmd builds the command tree. open is called only by commands that
// need the database.
func newRootCmd(jwtSecret string, open func() (*deps, error)) *cobra.Command {
	root := &cobra.Command{
		Use:           "mallctl",
		Short:         "Admin tooling for the mall backend",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(cancelCmd(open))
	root.AddCommand(refreshCmd(open))
	root.AddCommand(activateProductsCmd(open))
	root.AddCommand(loadProductsCmd(open))
	root.AddCommand(issueTokenCmd(jwtSecret))

	return root
}

func cancelCmd(open func() (*deps, error)) *cobra.Command {
	var reason string

	cmd := &cobra.Command{
		Use:   "cancel ORDER_ID...",
		Short: "Cancel orders regardless of their current status",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := utils.ParseIDs(args)
			if err != nil {
				return fmt.Errorf("invalid order id: %w", err)
			}
			d, err := open()
			if err != nil {
				return err
			}

			n, err := d.orders.CancelMany(cmd.Context(), ids, reason)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d개의 주문을 취소했습니다.\n", n)
			return nil
		},
	}

	cmd.Flags().StringVarP(&reason, "reason", "r", order.DefaultCancelReason, "Cancel reason shown to the customer")
	return cmd
}

func refreshCmd(open func() (*deps, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "refresh ORDER_ID...",
		Short: "Re-read the latest payment of each order from the gateway",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := utils.ParseIDs(args)
			if err != nil {
				return fmt.Errorf("invalid order id: %w", err)
			}
			d, err := open()
			if err != nil {
				return err
			}

			err = d.payments.RefreshOrders(cmd.Context(), ids)
			failed := countJoined(err)
			fmt.Fprintf(cmd.OutOrStdout(), "%d개의 주문을 갱신했습니다.\n", len(ids)-failed)
			return err
		},
	}
}

func activateProductsCmd(open func() (*deps, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "activate-products PRODUCT_ID...",
		Short: "Mark products as active so they are listed",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := utils.ParseIDs(args)
			if err != nil {
				return fmt.Errorf("invalid product id: %w", err)
			}
			d, err := open()
			if err != nil {
				return err
			}

			n, err := d.products.Activate(cmd.Context(), ids)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d개의 상품을 활성화했습니다.\n", n)
			return nil
		},
	}
}

func loadProductsCmd(open func() (*deps, error)) *cobra.Command {
	var url string

	cmd := &cobra.Command{
		Use:   "load-products",
		Short: "Import categories and products from a JSON feed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := open()
			if err != nil {
				return err
			}

			res, err := d.loader.Load(cmd.Context(), url)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "loaded %d products (created %d, skipped %d)\n", res.Total, res.Created, res.Skipped)
			return nil
		},
	}

	cmd.Flags().StringVar(&url, "url", DefaultFeedURL, "Product feed URL")
	return cmd
}

// issueTokenCmd signs an access token for local testing of the HTTP API.
func issueTokenCmd(secret string) *cobra.Command {
	var (
		userID int64
		role   string
		ttl    time.Duration
	)

	cmd := &cobra.Command{
		Use:   "issue-token",
		Short: "Sign an access token for a user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if secret == "" {
				return errors.New("JWT_SECRET is not set")
			}
			if userID <= 0 {
				return errors.New("--user must be a positive id")
			}

			tok, err := auth.IssueToken(secret, userID, role, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok)
			return nil
		},
	}

	cmd.Flags().Int64Var(&userID, "user", 0, "User id placed in the token")
	cmd.Flags().StringVar(&role, "role", "", "Optional role claim")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "Token lifetime")
	return cmd
}

func countJoined(err error) int {
	if err == nil {
		return 0
	}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		return len(joined.Unwrap())
	}
	return 1
}

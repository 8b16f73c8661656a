package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"course-marketplace/internal/application"
	"course-marketplace/internal/domain"
	"course-marketplace/internal/domain/model"
	"course-marketplace/internal/infra/api"
)

var requestsCmd = &cobra.Command{
	Use:   "requests",
	Short: "List and decide payment requests",
}

var (
	listStatus string
	listUser   string
	listLimit  int
)

var requestsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List payment requests, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		f := model.RequestFilter{
			UserID: strings.TrimSpace(listUser),
			Status: model.RequestStatus(strings.ToLower(listStatus)),
			Limit:  listLimit,
		}
		if f.Status != "" && !f.Status.Valid() {
			return fmt.Errorf("unknown status %q: %w", listStatus, domain.ErrInvalidArgument)
		}
		return withApp(cmd, func(ctx context.Context, app *application.Container) error {
			reqs, err := app.Ledger.List(ctx, f)
			if err != nil {
				return err
			}
			return printRequests(cmd.OutOrStdout(), reqs)
		})
	},
}

var requestsApproveCmd = &cobra.Command{
	Use:   "approve <id>",
	Short: "Approve a pending request and grant access",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return decide(cmd, args[0], model.RequestStatusApproved)
	},
}

var requestsRejectCmd = &cobra.Command{
	Use:   "reject <id>",
	Short: "Reject a pending request",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return decide(cmd, args[0], model.RequestStatusRejected)
	},
}

func init() {
	requestsListCmd.Flags().StringVar(&listStatus, "status", "", "pending | approved | rejected")
	requestsListCmd.Flags().StringVar(&listUser, "user", "", "only requests of this user id")
	requestsListCmd.Flags().IntVar(&listLimit, "limit", 50, "maximum rows, 0 for all")

	requestsCmd.AddCommand(requestsListCmd, requestsApproveCmd, requestsRejectCmd)
}

func decide(cmd *cobra.Command, id string, want model.RequestStatus) error {
	return withApp(cmd, func(ctx context.Context, app *application.Container) error {
		fn := app.Approval.Reject
		if want == model.RequestStatusApproved {
			fn = app.Approval.Approve
		}
		req, err := fn(ctx, id)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), decisionLine(req, want))
		return nil
	})
}

func decisionLine(req *model.PaymentRequest, want model.RequestStatus) string {
	if req.Status != want {
		return fmt.Sprintf("request %s is already %s, nothing changed", req.ID, req.Status)
	}
	return fmt.Sprintf("request %s %s (%s, %d)", req.ID, req.Status, item(req), req.Amount)
}

func item(r *model.PaymentRequest) string {
	if r.Kind == model.RequestKindMembership {
		return string(r.Tier) + " membership"
	}
	return r.CourseID
}

func printRequests(w io.Writer, reqs []*model.PaymentRequest) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tUSER\tITEM\tAMOUNT\tSTATUS\tCREATED")
	for _, r := range reqs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%s\n",
			r.ID, r.UserEmail, item(r), r.Amount, r.Status, r.CreatedAt.UTC().Format(time.RFC3339))
	}
	return tw.Flush()
}

var (
	tokenUser  string
	tokenEmail string
	tokenAdmin bool
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Mint an API bearer token",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := load()
		if err != nil {
			return err
		}
		role := api.RoleUser
		if tokenAdmin {
			role = api.RoleAdmin
		}
		tok, err := api.NewAuthManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL).Mint(tokenUser, tokenEmail, role)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), tok)
		return nil
	},
}

func init() {
	tokenCmd.Flags().StringVar(&tokenUser, "user", "", "user id (subject)")
	tokenCmd.Flags().StringVar(&tokenEmail, "email", "", "user e-mail")
	tokenCmd.Flags().BoolVar(&tokenAdmin, "admin", false, "mint an admin token")
	_ = tokenCmd.MarkFlagRequired("user")
}

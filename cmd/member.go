package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/satheeshds/invoicing/logger"
	"github.com/satheeshds/invoicing/models"
)

var memberCmd = &cobra.Command{
	Use:   "member",
	Short: "Manage the members allowed to use the API",
}

var memberAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a member",
	Long: `Add a member directly in the database. Use this to create the first admin,
who can then manage everyone else through the API.

The password is read from --password or, when omitted, from MEMBER_PASSWORD.`,
	Example: `  MEMBER_PASSWORD=s3cret-pass invoicing member add --name "Asha Rao" \
    --username asha --email asha@example.com --role Admin`,
	Args: cobra.NoArgs,
	RunE: runMemberAdd,
}

var memberListCmd = &cobra.Command{
	Use:   "list",
	Short: "List members",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signalContext(cmd)
		defer stop()

		a, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		members, err := a.members.List(ctx)
		if err != nil {
			return err
		}
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tUSERNAME\tNAME\tROLE\tSTATUS")
		for _, m := range members {
			fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", m.ID, m.Username, m.Name, m.Role, m.Status)
		}
		return tw.Flush()
	},
}

func init() {
	rootCmd.AddCommand(memberCmd)
	memberCmd.AddCommand(memberAddCmd)
	memberCmd.AddCommand(memberListCmd)

	memberAddCmd.Flags().String("name", "", "Full name (required)")
	memberAddCmd.Flags().String("username", "", "Login name (required)")
	memberAddCmd.Flags().String("email", "", "Email address (required)")
	memberAddCmd.Flags().String("phone", "", "Phone number")
	memberAddCmd.Flags().String("role", models.RoleMember, "Member, Manager or Admin")
	memberAddCmd.Flags().String("password", "", "Password (default: $MEMBER_PASSWORD)")
	for _, name := range []string{"name", "username", "email"} {
		_ = memberAddCmd.MarkFlagRequired(name)
	}
}

func runMemberAdd(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("member")

	flags := cmd.Flags()
	input := models.MemberInput{Status: models.MemberActive}
	input.Name, _ = flags.GetString("name")
	input.Username, _ = flags.GetString("username")
	input.Email, _ = flags.GetString("email")
	input.Role, _ = flags.GetString("role")
	input.Password, _ = flags.GetString("password")
	if phone, _ := flags.GetString("phone"); phone != "" {
		input.Phone = &phone
	}
	if input.Password == "" {
		input.Password = os.Getenv("MEMBER_PASSWORD")
	}

	ctx, stop := signalContext(cmd)
	defer stop()

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	m, err := a.members.Create(ctx, input)
	if err != nil {
		return err
	}
	log.Info().
		Int64("member_id", m.ID).
		Str("username", m.Username).
		Str("role", m.Role).
		Msg("Member added")
	return nil
}

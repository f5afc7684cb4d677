package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/cuonglevan23/ybproject"
)

func (c *cli) loginCommand() *cobra.Command {
	var input yb.LoginInput

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and persist the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			result, err := c.app.Auth.Login(cmd.Context(), input)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s <%s>\n", result.User.Name, result.User.Email)
			return nil
		},
	}
	cmd.Flags().StringVarP(&input.Email, "email", "e", "", "account email")
	cmd.Flags().StringVarP(&input.Password, "password", "p", "", "account password")
	_ = cmd.MarkFlagRequired("email")

	return cmd
}

func (c *cli) signupCommand() *cobra.Command {
	var input yb.SignUpInput

	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create an account and sign in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			result, err := c.app.Auth.SignUp(cmd.Context(), input)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Welcome, %s <%s>\n", result.User.Name, result.User.Email)
			return nil
		},
	}
	cmd.Flags().StringVar(&input.Name, "name", "", "display name")
	cmd.Flags().StringVarP(&input.Email, "email", "e", "", "account email")
	cmd.Flags().StringVarP(&input.Password, "password", "p", "", "password")
	cmd.Flags().StringVar(&input.ConfirmPassword, "confirm", "", "password confirmation")
	_ = cmd.MarkFlagRequired("email")

	return cmd
}

func (c *cli) logoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Clear the persisted session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := c.app.Auth.Logout(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Signed out")
			return nil
		},
	}
}

func (c *cli) whoamiCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			user := c.app.Auth.User()
			if !c.app.Auth.IsAuthenticated() || user == nil {
				return yb.ErrNotAuthenticated
			}
			session := c.app.Auth.Session()
			fmt.Fprintf(cmd.OutOrStdout(), "%s <%s> id=%s since %s\n",
				user.Name, user.Email, user.ID, session.CreatedAt.Format("2006-01-02 15:04"))
			return nil
		},
	}
}

func (c *cli) overviewCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "overview",
		Short: "Show the channel analytics summary",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			o, err := c.app.Dashboard.ChannelOverview(cmd.Context())
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintf(w, "Channel\t%s (%s)\n", o.Title, o.ChannelID)
			fmt.Fprintf(w, "Subscribers\t%s\n", yb.FormatCount(o.Subscribers))
			fmt.Fprintf(w, "Views\t%s\n", yb.FormatCount(o.Views))
			fmt.Fprintf(w, "Videos\t%d\n", o.Videos)
			fmt.Fprintf(w, "Watch hours\t%s\n", yb.FormatCount(o.WatchHours))
			fmt.Fprintf(w, "Growth\t%.1f%%\n", o.GrowthRate)
			for _, d := range o.Daily {
				fmt.Fprintf(w, "  %s\t%s views, +%d subs\n", d.Date, yb.FormatCount(d.Views), d.Subscribers)
			}
			return w.Flush()
		},
	}
}

func (c *cli) keywordsCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "keywords [query]",
		Short: "Research keywords, best score first",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := ""
			if len(args) == 1 {
				query = args[0]
			}
			keywords, err := c.app.Dashboard.Keywords(cmd.Context(), query, limit)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "TERM\tVOLUME\tCOMPETITION\tSCORE")
			for _, k := range keywords {
				fmt.Fprintf(w, "%s\t%s\t%s\t%.0f\n", k.Term, yb.FormatCount(k.SearchVolume), k.Competition, k.Score)
			}
			return w.Flush()
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "maximum rows")

	return cmd
}

func (c *cli) competitorsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "competitors",
		Short: "List tracked competitor channels",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			competitors, err := c.app.Dashboard.Competitors(cmd.Context())
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "CHANNEL\tSUBSCRIBERS\tAVG VIEWS\tUPLOADS/WEEK")
			for _, comp := range competitors {
				fmt.Fprintf(w, "%s\t%s\t%s\t%.1f\n", comp.Title, yb.FormatCount(comp.Subscribers), yb.FormatCount(comp.AvgViews), comp.UploadsWeek)
			}
			return w.Flush()
		},
	}
}

func (c *cli) chatCommand() *cobra.Command {
	var history bool

	cmd := &cobra.Command{
		Use:   "chat [message]",
		Short: "Ask the growth coach, or show the conversation with --history",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if history {
				messages, err := c.app.Dashboard.ChatHistory(cmd.Context())
				if err != nil {
					return err
				}
				for _, m := range messages {
					fmt.Fprintf(out, "[%s] %s\n", m.Role, m.Content)
				}
				return nil
			}

			reply, err := c.app.Dashboard.SendChatMessage(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			fmt.Fprintln(out, reply.Content)
			return nil
		},
	}
	cmd.Flags().BoolVar(&history, "history", false, "print the conversation so far")

	return cmd
}

func (c *cli) videoCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "video <id>",
		Short: "Show optimization suggestions for a video",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := c.app.Dashboard.VideoOptimization(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s (score %d)\n", v.Title, v.Score)
			fmt.Fprintf(out, "Suggested title: %s\n", v.SuggestedTitle)
			fmt.Fprintf(out, "Suggested tags: %s\n", strings.Join(v.SuggestedTags, ", "))
			for _, tip := range v.Tips {
				fmt.Fprintf(out, "  - %s\n", tip)
			}
			return nil
		},
	}
}

func (c *cli) getCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get <path>",
		Short: "GET any endpoint and print the envelope data as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := c.app.Client.Request(cmd.Context(), http.MethodGet, args[0], nil, nil)
			if err != nil {
				return err
			}

			var data any
			if len(env.Data) > 0 {
				if err := json.Unmarshal(env.Data, &data); err != nil {
					return err
				}
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(data)
		},
	}
}

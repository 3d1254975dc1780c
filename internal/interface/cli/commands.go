package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/yanqian/astro-daily/internal/domain/chat"
	"github.com/yanqian/astro-daily/internal/domain/profile"
	"github.com/yanqian/astro-daily/internal/domain/reading"
	apperrors "github.com/yanqian/astro-daily/pkg/errors"
)

// Deps are the services the terminal client drives.
type Deps struct {
	Profiles  profile.Repository
	Readings  reading.Service
	Reading   reading.Config
	Chat      chat.Config
	Transport chat.Transport
	Logger    *slog.Logger
}

// NewDeps is used by Wire to assemble the terminal client.
func NewDeps(profiles profile.Repository, readings reading.Service, readingCfg reading.Config, chatCfg chat.Config, transport chat.Transport, logger *slog.Logger) *Deps {
	return &Deps{
		Profiles:  profiles,
		Readings:  readings,
		Reading:   readingCfg,
		Chat:      chatCfg,
		Transport: transport,
		Logger:    logger,
	}
}

// Loader builds Deps on demand so commands that need no services start instantly.
type Loader func() (*Deps, func(), error)

// NewRootCmd assembles the astro command tree.
func NewRootCmd(load Loader) *cobra.Command {
	root := &cobra.Command{
		Use:           "astro",
		Short:         "Daily zodiac readings and a chat with the Astro Master",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newProfileCmd(load))
	root.AddCommand(newReadingCmd(load))
	root.AddCommand(newCacheCmd(load))
	root.AddCommand(newZodiacCmd())
	root.AddCommand(newChatCmd(load))
	return root
}

func withDeps(load Loader, fn func(*Deps) error) error {
	deps, cleanup, err := load()
	if err != nil {
		return err
	}
	defer cleanup()
	return fn(deps)
}

func newProfileCmd(load Loader) *cobra.Command {
	cmd := &cobra.Command{Use: "profile", Short: "Manage the birth profile"}

	var (
		p              profile.UserProfile
		hour, minute   int
		gender, status string
	)
	setCmd := &cobra.Command{
		Use:   "set",
		Short: "Save the birth profile",
		RunE: func(c *cobra.Command, _ []string) error {
			if c.Flags().Changed("hour") || c.Flags().Changed("minute") {
				p.BirthTime = &profile.BirthTime{Hour: hour, Minute: minute}
			}
			p.Gender = profile.Gender(gender)
			p.RelationshipStatus = profile.RelationshipStatus(status)
			return withDeps(load, func(d *Deps) error {
				ctx := c.Context()
				previous, hadPrevious, err := d.Profiles.Load(ctx)
				if err != nil {
					d.Logger.Warn("load previous profile failed", "error", err)
				}
				saved, err := d.Profiles.Save(ctx, p)
				if err != nil {
					return userError(err)
				}
				if hadPrevious && !profile.Equal(previous, saved) {
					_ = d.Readings.ClearCachedReading(ctx)
				}
				_, _ = fmt.Fprintln(c.OutOrStdout(), Profile(saved))
				return nil
			})
		},
	}
	setCmd.Flags().IntVar(&p.BirthYear, "year", 0, "birth year (required)")
	setCmd.Flags().IntVar(&p.BirthMonth, "month", 0, "birth month 1-12 (required)")
	setCmd.Flags().IntVar(&p.BirthDay, "day", 0, "birth day 1-31 (required)")
	setCmd.Flags().IntVar(&hour, "hour", 0, "birth hour 0-23")
	setCmd.Flags().IntVar(&minute, "minute", 0, "birth minute 0-59")
	setCmd.Flags().StringVar(&gender, "gender", "", "female|male|prefer not to disclose")
	setCmd.Flags().StringVar(&p.BirthPlace, "place", "", "birth place")
	setCmd.Flags().StringVar(&status, "status", "", "single|married|engaged|dating|just broke up")
	_ = setCmd.MarkFlagRequired("year")
	_ = setCmd.MarkFlagRequired("month")
	_ = setCmd.MarkFlagRequired("day")

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Print the stored birth profile",
		RunE: func(c *cobra.Command, _ []string) error {
			return withDeps(load, func(d *Deps) error {
				p, ok, err := d.Profiles.Load(c.Context())
				if err != nil {
					return userError(err)
				}
				if !ok {
					_, _ = fmt.Fprintln(c.OutOrStdout(), "no birth profile saved; run `astro profile set`")
					return nil
				}
				_, _ = fmt.Fprintln(c.OutOrStdout(), Profile(p))
				return nil
			})
		},
	}

	cmd.AddCommand(setCmd, showCmd)
	return cmd
}

func newReadingCmd(load Loader) *cobra.Command {
	var (
		refresh bool
		watch   bool
		width   int
	)
	cmd := &cobra.Command{
		Use:   "reading",
		Short: "Show today's reading",
		RunE: func(c *cobra.Command, _ []string) error {
			return withDeps(load, func(d *Deps) error {
				ctx := c.Context()
				out := c.OutOrStdout()
				p, ok, err := d.Profiles.Load(ctx)
				if err != nil {
					return userError(err)
				}
				if !ok {
					return fmt.Errorf("no birth profile saved; run `astro profile set` first")
				}

				var res reading.Result
				if refresh {
					res, err = d.Readings.Refresh(ctx, p)
				} else {
					res, err = d.Readings.GetDailyReading(ctx, p)
				}
				if err != nil {
					return userError(err)
				}
				_, _ = fmt.Fprintln(out, Reading(res, width))
				if !watch {
					return nil
				}

				w := reading.NewWatcher(d.Reading, d.Readings, d.Profiles, d.Logger)
				w.OnRefresh(func(res reading.Result, err error) {
					if err != nil {
						_, _ = fmt.Fprintln(out, errorStyle.Render(apperrors.MessageOf(err)))
						return
					}
					_, _ = fmt.Fprintln(out, Reading(res, width))
				})
				return w.Run(ctx)
			})
		},
	}
	cmd.Flags().BoolVar(&refresh, "refresh", false, "ignore the cached reading")
	cmd.Flags().BoolVar(&watch, "watch", false, "keep running and refresh when the day rolls over")
	cmd.Flags().IntVar(&width, "width", DefaultWidth, "bar chart width")
	return cmd
}

func newCacheCmd(load Loader) *cobra.Command {
	cmd := &cobra.Command{Use: "cache", Short: "Manage the cached reading"}
	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Remove the cached reading",
		RunE: func(c *cobra.Command, _ []string) error {
			return withDeps(load, func(d *Deps) error {
				if err := d.Readings.ClearCachedReading(c.Context()); err != nil {
					return userError(err)
				}
				_, _ = fmt.Fprintln(c.OutOrStdout(), "cached reading cleared")
				return nil
			})
		},
	})
	return cmd
}

func newZodiacCmd() *cobra.Command {
	var year, hour int
	cmd := &cobra.Command{
		Use:   "zodiac",
		Short: "Look up the animal for a year and birth hour",
		RunE: func(c *cobra.Command, _ []string) error {
			var hp *int
			if c.Flags().Changed("hour") {
				if hour < 0 || hour > 23 {
					return fmt.Errorf("hour must be between 0 and 23")
				}
				hp = &hour
			}
			_, _ = fmt.Fprintln(c.OutOrStdout(), Zodiac(year, hp))
			return nil
		},
	}
	cmd.Flags().IntVar(&year, "year", 0, "year to look up (required)")
	cmd.Flags().IntVar(&hour, "hour", 0, "hour of birth 0-23")
	_ = cmd.MarkFlagRequired("year")
	return cmd
}

func newChatCmd(load Loader) *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Chat with the Astro Master (/reset, /quit)",
		RunE: func(c *cobra.Command, _ []string) error {
			return withDeps(load, func(d *Deps) error {
				sess := chat.NewSession(uuid.NewString(), d.Chat, d.Transport, d.Logger)
				return runChat(c.Context(), sess, c.InOrStdin(), c.OutOrStdout())
			})
		},
	}
}

func runChat(ctx context.Context, sess *chat.Session, in io.Reader, out io.Writer) error {
	for _, m := range sess.Messages() {
		_, _ = fmt.Fprintln(out, Message(m))
	}
	scanner := bufio.NewScanner(in)
	for {
		_, _ = fmt.Fprint(out, mutedStyle.Render("> "))
		if !scanner.Scan() {
			_, _ = fmt.Fprintln(out)
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
			continue
		case "/quit", "/exit":
			return nil
		case "/reset":
			_, _ = fmt.Fprintln(out, Message(sess.Reset()))
			continue
		}
		_, reply, err := sess.Send(ctx, line)
		if err != nil {
			_, _ = fmt.Fprintln(out, errorStyle.Render(apperrors.MessageOf(err)))
			continue
		}
		_, _ = fmt.Fprintln(out, Message(reply))
		if ctx.Err() != nil {
			return nil
		}
	}
}

// userError keeps the user facing message and drops the wrapped cause.
func userError(err error) error {
	return errors.New(apperrors.MessageOf(err))
}

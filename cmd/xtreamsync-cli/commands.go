package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/urfave/cli/v3"
	"github.com/xtreamsync/xtreamsync/internal/core"
	"github.com/xtreamsync/xtreamsync/internal/models"
	"github.com/xtreamsync/xtreamsync/internal/syncer"
)

func commands() []*cli.Command {
	subscriptionFlag := &cli.IntFlag{
		Name:     "subscription",
		Aliases:  []string{"s"},
		Usage:    "Subscription ID",
		Required: true,
	}
	typeFlag := &cli.StringFlag{
		Name:    "type",
		Aliases: []string{"t"},
		Usage:   "Content type: movies, series or all",
		Value:   "all",
	}

	return []*cli.Command{
		{
			Name:   "migrate",
			Usage:  "Initialize the database and apply migrations",
			Action: migrateAction,
		},
		{
			Name:    "list",
			Aliases: []string{"ls"},
			Usage:   "List subscriptions",
			Action:  listSubscriptionsAction,
		},
		{
			Name:   "status",
			Usage:  "Show the sync state of every subscription",
			Action: statusAction,
		},
		{
			Name:   "refresh-categories",
			Usage:  "Refresh the category list of a subscription from the provider",
			Flags:  []cli.Flag{subscriptionFlag, typeFlag},
			Action: refreshCategoriesAction,
		},
		{
			Name:   "sync",
			Usage:  "Run a sync in the foreground",
			Flags:  []cli.Flag{subscriptionFlag, typeFlag},
			Action: syncAction,
		},
	}
}

// withApp opens the application for the duration of one command.
func withApp(fn func(app *core.App) error) error {
	app, err := core.New(version)
	if err != nil {
		return err
	}
	defer app.Close()
	return fn(app)
}

func contentTypes(raw string) ([]models.ContentType, error) {
	switch raw {
	case "all", "":
		return models.ContentTypes, nil
	case string(models.Movies), string(models.Series):
		return []models.ContentType{models.ContentType(raw)}, nil
	}
	return nil, fmt.Errorf("invalid type %q, expected movies, series or all", raw)
}

func migrateAction(ctx context.Context, cmd *cli.Command) error {
	return withApp(func(app *core.App) error {
		fmt.Printf("Database ready at %s\n", app.Config().Database.Path)
		return nil
	})
}

func listSubscriptionsAction(ctx context.Context, cmd *cli.Command) error {
	return withApp(func(app *core.App) error {
		subs, err := app.Store().ListSubscriptions(0, 0)
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tACTIVE\tURL\tMOVIES\tSERIES")
		for _, s := range subs {
			fmt.Fprintf(w, "%d\t%s\t%t\t%s\t%s\t%s\n", s.ID, s.Name, s.IsActive, s.XtreamURL, s.MoviesDir, s.SeriesDir)
		}
		return w.Flush()
	})
}

func statusAction(ctx context.Context, cmd *cli.Command) error {
	return withApp(func(app *core.App) error {
		states, err := app.Store().ListSyncStates()
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "SUBSCRIPTION\tTYPE\tSTATUS\tLAST SYNC\tADDED\tDELETED\tERROR")
		for _, st := range states {
			last, errMsg := "never", ""
			if st.LastSync != nil {
				last = st.LastSync.Local().Format("2006-01-02 15:04")
			}
			if st.ErrorMessage != nil {
				errMsg = *st.ErrorMessage
			}
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%d\t%d\t%s\n", st.SubscriptionID, st.Type, st.Status, last, st.ItemsAdded, st.ItemsDeleted, errMsg)
		}
		return w.Flush()
	})
}

func refreshCategoriesAction(ctx context.Context, cmd *cli.Command) error {
	types, err := contentTypes(cmd.String("type"))
	if err != nil {
		return err
	}
	subID := int64(cmd.Int("subscription"))
	return withApp(func(app *core.App) error {
		for _, ct := range types {
			res, err := app.Engine().RefreshCategories(ctx, subID, ct)
			if err != nil {
				return fmt.Errorf("refreshing %s categories: %w", ct, err)
			}
			fmt.Printf("%s: %d categories\n", ct.Label(), res.CategoriesSynced)
		}
		return nil
	})
}

func syncAction(ctx context.Context, cmd *cli.Command) error {
	types, err := contentTypes(cmd.String("type"))
	if err != nil {
		return err
	}
	subID := int64(cmd.Int("subscription"))
	return withApp(func(app *core.App) error {
		logger := app.Logger()
		for _, ct := range types {
			progress := func(current, total int, phase string) {
				logger.Info(phase, "type", ct, "current", current, "total", total)
			}
			res, err := app.Engine().Sync(ctx, subID, ct, progress)
			if errors.Is(err, syncer.ErrStopped) {
				if serr := app.Store().MarkSyncStopped(subID, ct); serr != nil {
					logger.Error("Resetting stopped sync state", "err", serr)
				}
				return err
			}
			if err != nil {
				return fmt.Errorf("%s sync: %w", ct, err)
			}
			fmt.Printf("%s sync complete: %d added, %d deleted\n", ct.Label(), res.ItemsAdded, res.ItemsDeleted)
		}
		return nil
	})
}

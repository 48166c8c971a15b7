package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"janmanch-client/internal/auth"
	"janmanch-client/internal/config"
	"janmanch-client/internal/credential"
	authdomain "janmanch-client/internal/domain/auth"
	notifdomain "janmanch-client/internal/domain/notification"
	rt "janmanch-client/internal/domain/realtime"
	"janmanch-client/internal/httpclient"
	"janmanch-client/internal/notification"
	xerrors "janmanch-client/internal/pkg/errors"
	"janmanch-client/internal/realtime"
	"janmanch-client/internal/store"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

const usage = `memberctl <command> [flags]

Commands:
  login          -identifier <phone> -password <password>
  watch          stream pushed notifications until interrupted
  notifications  list the feed; -unread-only and -mark-all-read supported
  sessions       list active device sessions
  logout         end the current session
`

type app struct {
	cfg        config.AppConfig
	controller *auth.Controller
	channel    *realtime.Channel
	notifSvc   *notification.Service
	creds      *credential.Store
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("[MAIN] No .env file found, relying on system env vars")
	}

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	a := newApp(logger)
	ctx := context.Background()

	var err error
	switch os.Args[1] {
	case "login":
		err = a.login(ctx, os.Args[2:])
	case "watch":
		err = a.watch()
	case "notifications":
		err = a.notifications(ctx, os.Args[2:])
	case "sessions":
		err = a.sessions(ctx)
	case "logout":
		err = a.controller.Logout(ctx)
	default:
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newApp(logger *zap.Logger) *app {
	cfg := config.Load()
	creds := credential.NewStore(cfg.StateDir, cfg.Production, logger)
	client := httpclient.New(cfg.APIBaseURL, cfg.DeviceName, cfg.HTTPTimeout, creds, logger)
	notifications := store.NewNotificationStore()
	sessions := store.NewSessionStore()

	var controller *auth.Controller
	channel := realtime.NewChannel(cfg.WSURL, cfg.FetchLimit, notifications, sessions, realtime.Hooks{
		OnSessionRevoked: func(payload rt.SessionRevokedPayload) {
			controller.HandleSessionRevoked(payload)
		},
		OnError: func(message string) {
			fmt.Fprintln(os.Stderr, "channel notice:", message)
		},
		OnNotification: func(n notifdomain.Notification) {
			fmt.Printf("[%s] %s: %s\n", n.Type, n.Title, n.Message)
		},
	}, logger)
	controller = auth.NewController(client, creds, channel, notifications, sessions, logger)

	return &app{
		cfg:        cfg,
		controller: controller,
		channel:    channel,
		notifSvc:   notification.NewService(client, notifications, logger),
		creds:      creds,
	}
}

func (a *app) login(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	identifier := fs.String("identifier", "", "phone number or membership id")
	password := fs.String("password", "", "account password")
	fs.Parse(args)

	if *identifier == "" || *password == "" {
		return fmt.Errorf("both -identifier and -password are required")
	}

	user, err := a.controller.Login(ctx, *identifier, *password)
	if err != nil {
		return err
	}
	fmt.Printf("signed in as %s (%s)\n", user.FullName, user.ID)
	a.channel.Disconnect()
	return nil
}

func (a *app) watch() error {
	if !a.controller.IsAuthenticated() {
		return fmt.Errorf("not signed in; run memberctl login first")
	}

	token, _ := a.creds.Get(credential.KeyToken)
	sessionID, _ := a.creds.Get(credential.KeySessionID)
	cred := authdomain.Credential{Token: token, SessionID: sessionID}

	if err := a.channel.Connect(cred, a.controller.UserID()); err != nil {
		return xerrors.Wrap(err, "connect realtime channel")
	}
	defer a.channel.Disconnect()

	fmt.Println("watching for notifications, press ctrl-c to stop")
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	return nil
}

func (a *app) notifications(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("notifications", flag.ExitOnError)
	unreadOnly := fs.Bool("unread-only", false, "show unread notifications only")
	markAllRead := fs.Bool("mark-all-read", false, "mark the whole feed read")
	limit := fs.Int("limit", 20, "page size")
	fs.Parse(args)

	if !a.controller.IsAuthenticated() {
		return fmt.Errorf("not signed in; run memberctl login first")
	}

	if *markAllRead {
		if err := a.notifSvc.MarkAllRead(ctx); err != nil {
			return err
		}
		fmt.Println("all notifications marked as read")
		return nil
	}

	list, err := a.notifSvc.List(ctx, *limit, 0, *unreadOnly)
	if err != nil {
		return err
	}
	count, err := a.notifSvc.UnreadCount(ctx)
	if err != nil {
		return err
	}
	for _, n := range list {
		marker := " "
		if !n.Read {
			marker = "*"
		}
		fmt.Printf("%s [%s] %s: %s\n", marker, n.Type, n.Title, n.Message)
	}
	fmt.Printf("%d unread\n", count)
	return nil
}

func (a *app) sessions(ctx context.Context) error {
	list, err := a.controller.ActiveSessions(ctx)
	if err != nil {
		return err
	}
	for _, s := range list {
		marker := " "
		if s.IsCurrent {
			marker = "*"
		}
		fmt.Printf("%s %s  %-8s %-15s last active %s\n",
			marker, s.ID, s.DeviceType, s.Location, s.LastActiveAt.Format("2006-01-02 15:04"))
	}
	return nil
}

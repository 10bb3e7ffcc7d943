package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"talentlink-inbox/config"
	"talentlink-inbox/internal/api"
	"talentlink-inbox/internal/composer"
	"talentlink-inbox/internal/directory"
	"talentlink-inbox/internal/domain"
	"talentlink-inbox/internal/orchestrator"
	"talentlink-inbox/internal/realtime"
	"talentlink-inbox/internal/session"
	"talentlink-inbox/internal/timeline"
	"talentlink-inbox/pkg/logger"

	"talentlink-inbox/internal/commands"
)

func main() {
	var (
		username       = flag.String("username", "", "dev server login")
		password       = flag.String("password", "", "dev server password")
		conversationID = flag.Int64("conversation", 0, "deep link into a conversation id")
		targetUserID   = flag.Int64("to", 0, "start a conversation with a user id")
	)
	flag.Parse()

	cfg := config.LoadConfig()
	log := logger.New(cfg.AppMode)
	logger.SetGlobalLogger(log)
	defer func() { _ = log.Logger.Sync() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	client := api.New(cfg.APIBaseURL, cfg.AccessToken, time.Duration(cfg.RequestTimeout)*time.Second, log)

	token := cfg.AccessToken
	var self session.Identity
	if *username != "" {
		login, err := client.Login(ctx, *username, *password)
		if err != nil {
			log.Errorf("login: %v", err)
			return
		}
		token = login.AccessToken
		client.SetAccessToken(token)
		self = session.Identity{UserID: login.UserID, Username: login.Username}
	} else {
		identity, err := session.FromAccessToken(token)
		if err != nil {
			log.Errorf("no usable identity, pass -username or set ACCESS_TOKEN: %v", err)
			return
		}
		self = identity
	}

	dir := directory.New(client, log)
	tl := timeline.New()
	runner := commands.NewRunner(log)
	channel := realtime.NewChannel(cfg.WSBaseURL, token, log)

	confirm := func(msg domain.Message) bool {
		fmt.Printf("delete message %d (%q)? [y/N] ", msg.ID, msg.Text)
		reader := bufio.NewReader(os.Stdin)
		answer, _ := reader.ReadString('\n')
		return strings.EqualFold(strings.TrimSpace(answer), "y")
	}
	newComposer := func(id int64) *composer.Composer {
		return composer.New(client, runner, tl, self, id, confirm, log)
	}
	subscribe := func(ctx context.Context, id int64) orchestrator.Subscription {
		return channel.Subscribe(ctx, id)
	}
	navigate := func(id int64) {
		fmt.Printf("-- conversation %d --\n", id)
	}

	orch := orchestrator.New(client, dir, tl, self, subscribe, navigate, newComposer, log)
	orch.OnEvent = func(ev realtime.Event) {
		switch ev.Type {
		case realtime.EventTypeMessageCreated:
			if ev.Message != nil && ev.Message.SenderID != self.UserID {
				printMessage(*ev.Message, self.UserID)
			}
		case realtime.EventTypeTypingChanged:
			if ev.Typing != nil && ev.Typing.Typing {
				fmt.Printf("  user %d is typing...\n", ev.Typing.UserID)
			}
		case realtime.EventTypePresenceChanged:
			if ev.Presence != nil {
				state := "offline"
				if ev.Presence.Online {
					state = "online"
				}
				fmt.Printf("  user %d is %s\n", ev.Presence.UserID, state)
			}
		}
	}
	defer orch.Close()

	if *targetUserID != 0 {
		if _, err := orch.StartWith(ctx, *targetUserID); err != nil {
			log.Errorf("start conversation: %v", err)
			return
		}
	} else if err := orch.Init(ctx, *conversationID); err != nil {
		log.Errorf("init: %v", err)
		return
	}

	printDirectory(dir, self.UserID)
	printTimeline(tl, self.UserID)
	fmt.Println(`type a message, or /open <id>, /search <text>, /edit <id> <text>, /del <id>, /react <id> <kind>, /quit`)

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "/") {
			if quit := runCommand(ctx, line, orch, dir, tl, self, log); quit {
				return
			}
			continue
		}
		comp := orch.Composer()
		if comp == nil {
			fmt.Println("no conversation selected")
			continue
		}
		comp.SetText(ctx, line)
		if _, err := comp.Send(ctx); err != nil {
			log.Errorf("send failed, draft preserved: %v", err)
		}
	}
}

func runCommand(ctx context.Context, line string, orch *orchestrator.Orchestrator,
	dir *directory.Directory, tl *timeline.Timeline, self session.Identity, log *logger.Logger) bool {
	fields := strings.Fields(line)
	switch fields[0] {
	case "/quit":
		return true
	case "/open":
		if len(fields) != 2 {
			fmt.Println("usage: /open <conversation id>")
			return false
		}
		id, err := strconv.ParseInt(fields[1], 10, 64)
		if err != nil {
			fmt.Println("usage: /open <conversation id>")
			return false
		}
		if err := orch.Select(ctx, id); err != nil {
			log.Errorf("open: %v", err)
			return false
		}
		printTimeline(tl, self.UserID)
	case "/search":
		query := strings.TrimSpace(strings.TrimPrefix(line, "/search"))
		results, err := dir.Search(ctx, query)
		if err != nil {
			log.Errorf("search: %v", err)
			return false
		}
		for _, conv := range results {
			fmt.Printf("  [%d] %s\n", conv.ID, directory.DisplayName(conv, self.UserID))
		}
	case "/edit":
		if len(fields) < 3 {
			fmt.Println("usage: /edit <message id> <text>")
			return false
		}
		id, err := strconv.ParseInt(fields[1], 10, 64)
		if err != nil {
			fmt.Println("usage: /edit <message id> <text>")
			return false
		}
		comp := orch.Composer()
		if comp == nil {
			fmt.Println("no conversation selected")
			return false
		}
		if err := comp.Edit(ctx, id, strings.Join(fields[2:], " ")); err != nil {
			log.Errorf("edit: %v", err)
		}
	case "/del":
		if len(fields) != 2 {
			fmt.Println("usage: /del <message id>")
			return false
		}
		id, err := strconv.ParseInt(fields[1], 10, 64)
		if err != nil {
			fmt.Println("usage: /del <message id>")
			return false
		}
		comp := orch.Composer()
		if comp == nil {
			fmt.Println("no conversation selected")
			return false
		}
		if err := comp.Delete(ctx, id); err != nil {
			log.Errorf("delete: %v", err)
		}
	case "/react":
		if len(fields) != 3 {
			fmt.Println("usage: /react <message id> <like|love|laugh|wow|sad|angry>")
			return false
		}
		id, err := strconv.ParseInt(fields[1], 10, 64)
		if err != nil {
			fmt.Println("usage: /react <message id> <kind>")
			return false
		}
		comp := orch.Composer()
		if comp == nil {
			fmt.Println("no conversation selected")
			return false
		}
		if err := comp.ToggleReaction(ctx, id, domain.ReactionKind(fields[2])); err != nil {
			log.Errorf("react: %v", err)
		}
	default:
		fmt.Println("unknown command")
	}
	return false
}

func printDirectory(dir *directory.Directory, currentUserID int64) {
	fmt.Println("conversations:")
	for _, conv := range dir.Conversations() {
		badge := ""
		if conv.UnreadCount > 0 {
			badge = fmt.Sprintf(" (%d unread)", conv.UnreadCount)
		}
		preview := ""
		if conv.LastMessage != nil {
			preview = " - " + conv.LastMessage.Text
		}
		fmt.Printf("  [%d] %s%s%s\n", conv.ID, directory.DisplayName(conv, currentUserID), badge, preview)
	}
}

func printTimeline(tl *timeline.Timeline, currentUserID int64) {
	for _, msg := range tl.Messages() {
		printMessage(msg, currentUserID)
	}
}

func printMessage(msg domain.Message, currentUserID int64) {
	who := fmt.Sprintf("user %d", msg.SenderID)
	if msg.IsOwn(currentUserID) {
		who = "me"
	}
	suffix := ""
	if msg.IsEdited {
		suffix = " (edited)"
	}
	if msg.Type != domain.MessageTypeText {
		suffix += fmt.Sprintf(" [%s: %s]", msg.Type, msg.AttachmentFilename)
	}
	fmt.Printf("  #%d %s: %s%s\n", msg.ID, who, msg.Text, suffix)
}

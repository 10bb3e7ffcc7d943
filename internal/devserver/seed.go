package devserver

import (
	"fmt"

	"talentlink-inbox/internal/transport/httpdto"
)

// SeedConfig holds configuration for seeding the dev store
type SeedConfig struct {
	Password string
}

func DefaultSeedConfig() *SeedConfig {
	return &SeedConfig{Password: "Talent@123!"}
}

// SeedResult reports what was created so the CLI can print login hints.
type SeedResult struct {
	Recruiter *User
	Seekers   []*User
}

// Seed populates the store with a recruiter, two job seekers, and a
// few threads: one active with unread messages, one archived.
func Seed(store *Store, cfg *SeedConfig) (*SeedResult, error) {
	if cfg == nil {
		cfg = DefaultSeedConfig()
	}

	recruiter, err := store.CreateUser("dana.reed", "Dana Reed", cfg.Password)
	if err != nil {
		return nil, fmt.Errorf("seed recruiter: %w", err)
	}
	seeker1, err := store.CreateUser("sam.okafor", "Sam Okafor", cfg.Password)
	if err != nil {
		return nil, fmt.Errorf("seed seeker: %w", err)
	}
	seeker2, err := store.CreateUser("mira.tan", "", cfg.Password)
	if err != nil {
		return nil, fmt.Errorf("seed seeker: %w", err)
	}

	conv1, err := store.StartConversation(recruiter.ID, seeker1.ID)
	if err != nil {
		return nil, err
	}
	seedMessages := []struct {
		sender int64
		text   string
	}{
		{recruiter.ID, "Hi Sam, thanks for applying to the Backend Engineer role."},
		{seeker1.ID, "Thanks Dana! Happy to share more about my Go experience."},
		{recruiter.ID, "Great. Are you free for a 30 minute intro call this week?"},
	}
	for _, m := range seedMessages {
		if _, err := store.AppendMessage(conv1, m.sender, httpdto.SendMessageRequest{Text: m.text}); err != nil {
			return nil, err
		}
	}

	conv2, err := store.StartConversation(recruiter.ID, seeker2.ID)
	if err != nil {
		return nil, err
	}
	if _, err := store.AppendMessage(conv2, seeker2.ID, httpdto.SendMessageRequest{
		Text: "Hello! Is the Platform SRE position still open?",
	}); err != nil {
		return nil, err
	}
	store.Archive(conv2)

	return &SeedResult{Recruiter: recruiter, Seekers: []*User{seeker1, seeker2}}, nil
}

package services

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/rentalchat-backend/internal/data/repos"
	types "github.com/yungbote/rentalchat-backend/internal/domain"
	"github.com/yungbote/rentalchat-backend/internal/platform/dbctx"
	"github.com/yungbote/rentalchat-backend/internal/platform/logger"
)

// SeedFile is the YAML document managed by administrators.
//
//	auto_reply_rules:
//	  - trigger: "is parking included"
//	    match: contains
//	    response: "Yes, one parking spot is included."
//	    priority: 10
//	quick_replies:
//	  - message: "Is the unit still available?"
//	    category: availability
type SeedFile struct {
	AutoReplyRules []SeedRule       `yaml:"auto_reply_rules"`
	QuickReplies   []SeedQuickReply `yaml:"quick_replies"`
}

type SeedRule struct {
	Trigger  string `yaml:"trigger"`
	Match    string `yaml:"match"`
	Response string `yaml:"response"`
	Priority int    `yaml:"priority"`
	Active   *bool  `yaml:"active"`
}

type SeedQuickReply struct {
	Message  string         `yaml:"message"`
	Category string         `yaml:"category"`
	Active   *bool          `yaml:"active"`
	Metadata map[string]any `yaml:"metadata"`
}

func ParseSeed(raw []byte) (*SeedFile, error) {
	var f SeedFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse seed: %w", err)
	}
	for i, r := range f.AutoReplyRules {
		if strings.TrimSpace(r.Trigger) == "" || strings.TrimSpace(r.Response) == "" {
			return nil, fmt.Errorf("auto_reply_rules[%d]: trigger and response required", i)
		}
		if !types.MatchKind(strings.TrimSpace(r.Match)).Valid() {
			return nil, fmt.Errorf("auto_reply_rules[%d]: invalid match %q", i, r.Match)
		}
	}
	for i, q := range f.QuickReplies {
		if strings.TrimSpace(q.Message) == "" {
			return nil, fmt.Errorf("quick_replies[%d]: message required", i)
		}
	}
	return &f, nil
}

func LoadSeedFile(path string) (*SeedFile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed %q: %w", path, err)
	}
	return ParseSeed(raw)
}

type SeedService interface {
	// Apply replaces all rules and quick replies in one transaction.
	Apply(dbc dbctx.Context, f *SeedFile) error
}

type seedService struct {
	db     *gorm.DB
	log    *logger.Logger
	rules  repos.AutoReplyRuleRepo
	quicks repos.QuickReplyRepo
}

func NewSeedService(db *gorm.DB, log *logger.Logger, rules repos.AutoReplyRuleRepo, quicks repos.QuickReplyRepo) SeedService {
	return &seedService{db: db, log: log.With("service", "SeedService"), rules: rules, quicks: quicks}
}

func (s *seedService) Apply(dbc dbctx.Context, f *SeedFile) error {
	if f == nil {
		return fmt.Errorf("nil seed")
	}
	rules := make([]*types.AutoReplyRule, 0, len(f.AutoReplyRules))
	for _, r := range f.AutoReplyRules {
		rules = append(rules, &types.AutoReplyRule{
			Trigger:   strings.TrimSpace(r.Trigger),
			MatchKind: types.MatchKind(strings.TrimSpace(r.Match)),
			Response:  strings.TrimSpace(r.Response),
			Priority:  r.Priority,
			Active:    r.Active == nil || *r.Active,
		})
	}
	quicks := make([]*types.QuickReplyTemplate, 0, len(f.QuickReplies))
	for _, q := range f.QuickReplies {
		row := &types.QuickReplyTemplate{
			Message:  strings.TrimSpace(q.Message),
			Category: strings.TrimSpace(q.Category),
			Active:   q.Active == nil || *q.Active,
		}
		if len(q.Metadata) > 0 {
			raw, err := json.Marshal(q.Metadata)
			if err != nil {
				return fmt.Errorf("quick reply metadata: %w", err)
			}
			row.Metadata = datatypes.JSON(raw)
		}
		quicks = append(quicks, row)
	}

	err := s.db.WithContext(ctxOf(dbc)).Transaction(func(tx *gorm.DB) error {
		inner := dbctx.Context{Ctx: ctxOf(dbc), Tx: tx}
		if err := s.rules.ReplaceAll(inner, rules); err != nil {
			return fmt.Errorf("replace rules: %w", err)
		}
		if err := s.quicks.ReplaceAll(inner, quicks); err != nil {
			return fmt.Errorf("replace quick replies: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.log.Info("chat seed applied", "rules", len(rules), "quick_replies", len(quicks))
	return nil
}

package fiber

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v2"

	"github.com/cuonglevan23/ybproject/core"
)

//go:embed fixtures.yaml
var defaultFixtures []byte

// Fixtures is the canned data the mock backend serves
type Fixtures struct {
	Accounts    []AccountFixture         `yaml:"accounts"`
	Overview    core.ChannelOverview     `yaml:"overview"`
	Keywords    []core.Keyword           `yaml:"keywords"`
	Competitors []core.Competitor        `yaml:"competitors"`
	Videos      []core.VideoOptimization `yaml:"videos"`
	Coach       CoachFixture             `yaml:"coach"`
}

// AccountFixture is a pre-registered login
type AccountFixture struct {
	Name     string `yaml:"name"`
	Email    string `yaml:"email"`
	Password string `yaml:"password"`
}

type CoachFixture struct {
	Fallback string       `yaml:"fallback"`
	Replies  []CoachReply `yaml:"replies"`
}

type CoachReply struct {
	Keywords []string `yaml:"keywords"`
	Reply    string   `yaml:"reply"`
}

// DefaultFixtures parses the embedded fixture set
func DefaultFixtures() (*Fixtures, error) {
	return ParseFixtures(defaultFixtures)
}

// ParseFixtures reads a YAML fixture document
func ParseFixtures(data []byte) (*Fixtures, error) {
	var f Fixtures
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse fixtures: %w", err)
	}
	return &f, nil
}

func (f *Fixtures) video(id string) (*core.VideoOptimization, bool) {
	for i := range f.Videos {
		if f.Videos[i].VideoID == id {
			v := f.Videos[i]
			return &v, true
		}
	}
	return nil, false
}

// reply picks the first canned answer whose keyword appears in message
func (c CoachFixture) reply(message string) string {
	m := strings.ToLower(message)
	for _, r := range c.Replies {
		for _, k := range r.Keywords {
			if strings.Contains(m, strings.ToLower(k)) {
				return r.Reply
			}
		}
	}
	return c.Fallback
}

// Package content loads the text shown on the portfolio page.
package content

import (
	_ "embed"
	"fmt"
	"html/template"
	"net/url"

	"github.com/BurntSushi/toml"
	"github.com/microcosm-cc/bluemonday"
)

//go:embed default.toml
var defaultContent string

type Education struct {
	Degree      string `toml:"degree"`
	Institution string `toml:"institution"`
	Years       string `toml:"years"`
}

type Profile struct {
	FirstName    string    `toml:"first_name"`
	LastName     string    `toml:"last_name"`
	Role         string    `toml:"role"`
	Availability string    `toml:"availability"`
	Summary      string    `toml:"summary"`
	About        string    `toml:"about"`
	Photo        string    `toml:"photo"`
	Education    Education `toml:"education"`

	AboutHTML template.HTML `toml:"-"`
}

// FullName joins the first and last name.
func (p Profile) FullName() string {
	return p.FirstName + " " + p.LastName
}

type SkillCategory struct {
	Title  string   `toml:"title"`
	Skills []string `toml:"skills"`
}

type Project struct {
	Title       string `toml:"title"`
	Description string `toml:"description"`
	Demo        string `toml:"demo"`
	Source      string `toml:"source"`
	Image       string `toml:"image"`

	DescriptionHTML template.HTML `toml:"-"`
}

// Channel is one way to reach the site owner. Href may be empty for
// channels that are not links, such as a location.
type Channel struct {
	Kind     string `toml:"kind"`
	Label    string `toml:"label"`
	Value    string `toml:"value"`
	Href     string `toml:"href"`
	External bool   `toml:"external"`
}

type Footer struct {
	Name    string `toml:"name"`
	Tagline string `toml:"tagline"`
}

// Content is everything rendered on the page.
type Content struct {
	Profile    Profile         `toml:"profile"`
	Skills     []SkillCategory `toml:"skills"`
	SoftSkills []string        `toml:"soft_skills"`
	Projects   []Project       `toml:"projects"`
	Channels   []Channel       `toml:"channels"`
	Footer     Footer          `toml:"footer"`
}

var policy = newPolicy()

func newPolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowAttrs("class").OnElements("span")
	p.RequireParseableURLs(true)
	p.AllowURLSchemes("http", "https", "mailto")
	return p
}

// Load reads content from a TOML file. An empty path loads the built-in
// content.
func Load(path string) (*Content, error) {
	var c Content
	if path == "" {
		if _, err := toml.Decode(defaultContent, &c); err != nil {
			return nil, fmt.Errorf("decode built-in content: %w", err)
		}
	} else if _, err := toml.DecodeFile(path, &c); err != nil {
		return nil, fmt.Errorf("decode content %s: %w", path, err)
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	c.sanitize()
	return &c, nil
}

// Default returns the built-in content.
func Default() *Content {
	c, err := Load("")
	if err != nil {
		panic(err)
	}
	return c
}

func (c *Content) validate() error {
	if c.Profile.FirstName == "" {
		return fmt.Errorf("content: profile.first_name is required")
	}
	for _, p := range c.Projects {
		for _, link := range []string{p.Demo, p.Source} {
			if link == "" {
				continue
			}
			u, err := url.Parse(link)
			if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
				return fmt.Errorf("content: project %q has invalid link %q", p.Title, link)
			}
		}
	}
	return nil
}

func (c *Content) sanitize() {
	c.Profile.AboutHTML = template.HTML(policy.Sanitize(c.Profile.About))
	for i := range c.Projects {
		c.Projects[i].DescriptionHTML = template.HTML(policy.Sanitize(c.Projects[i].Description))
	}
}

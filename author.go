package moose

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// AuthorKind identifies who drew a moose.
type AuthorKind int

// The kinds of author.
const (
	AuthorAnonymous AuthorKind = iota
	AuthorAlias
	AuthorGitHub
)

const (
	maxAuthorLen = 39
	aliasPrefix  = "Alias__"
	githubPrefix = "GitHub__"
)

// ErrInvalidAuthor is returned for an author name that could not be a
// GitHub username.
var ErrInvalidAuthor = errors.New("moose: invalid author name")

// Author is the creator of a moose. The zero value is anonymous.
type Author struct {
	Kind AuthorKind
	Name string
}

// Anonymous is the author of a moose nobody claimed.
var Anonymous = Author{}

// ValidateAuthorName checks name is between 1 and 39 bytes of ASCII letters
// and digits with single hyphens only between words.
func ValidateAuthorName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty", ErrInvalidAuthor)
	}
	if len(name) > maxAuthorLen {
		return fmt.Errorf("%w: longer than %d bytes", ErrInvalidAuthor, maxAuthorLen)
	}
	for _, word := range strings.Split(name, "-") {
		if word == "" {
			return fmt.Errorf("%w: hyphens are only allowed between words", ErrInvalidAuthor)
		}
		for _, r := range word {
			if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9') {
				return fmt.Errorf("%w: %q is not alphanumeric", ErrInvalidAuthor, r)
			}
		}
	}
	return nil
}

// NewAlias returns a self-declared author.
func NewAlias(name string) (Author, error) {
	if err := ValidateAuthorName(name); err != nil {
		return Anonymous, err
	}
	return Author{Kind: AuthorAlias, Name: name}, nil
}

// NewGitHub returns an author identified by their GitHub username.
func NewGitHub(name string) (Author, error) {
	if err := ValidateAuthorName(name); err != nil {
		return Anonymous, err
	}
	return Author{Kind: AuthorGitHub, Name: name}, nil
}

func (a Author) String() string {
	switch a.Kind {
	case AuthorAlias:
		return fmt.Sprintf("Alias(%q)", a.Name)
	case AuthorGitHub:
		return fmt.Sprintf("GitHub(%q)", a.Name)
	default:
		return "Anonymous"
	}
}

// MarshalJSON encodes an anonymous author as "Anonymous" and anyone else as
// {"Alias":"name"} or {"GitHub":"name"}.
func (a Author) MarshalJSON() ([]byte, error) {
	switch a.Kind {
	case AuthorAlias:
		return json.Marshal(map[string]string{"Alias": a.Name})
	case AuthorGitHub:
		return json.Marshal(map[string]string{"GitHub": a.Name})
	default:
		return json.Marshal("Anonymous")
	}
}

// UnmarshalJSON is the inverse of MarshalJSON. Names are validated.
func (a *Author) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		if s != "Anonymous" {
			return fmt.Errorf("moose: unknown author %q", s)
		}
		*a = Anonymous
		return nil
	}

	var named struct {
		Alias  *string
		GitHub *string
	}
	if err := json.Unmarshal(b, &named); err != nil {
		return err
	}

	var (
		author Author
		err    error
	)
	switch {
	case named.Alias != nil && named.GitHub != nil:
		return errors.New("moose: author cannot be both Alias and GitHub")
	case named.Alias != nil:
		author, err = NewAlias(*named.Alias)
	case named.GitHub != nil:
		author, err = NewGitHub(*named.GitHub)
	default:
		return errors.New("moose: author must be Anonymous, Alias or GitHub")
	}
	if err != nil {
		return err
	}

	*a = author
	return nil
}

// Value implements driver.Valuer. Anonymous authors are stored as NULL.
func (a Author) Value() (driver.Value, error) {
	switch a.Kind {
	case AuthorAlias:
		return aliasPrefix + a.Name, nil
	case AuthorGitHub:
		return githubPrefix + a.Name, nil
	default:
		return nil, nil
	}
}

// Scan implements sql.Scanner. A value without a known prefix is a GitHub
// username.
func (a *Author) Scan(src interface{}) error {
	var s string
	switch v := src.(type) {
	case nil:
		*a = Anonymous
		return nil
	case string:
		s = v
	case []byte:
		s = string(v)
	default:
		return fmt.Errorf("moose: cannot scan %T into author", src)
	}

	switch {
	case strings.HasPrefix(s, aliasPrefix):
		*a = Author{Kind: AuthorAlias, Name: strings.TrimPrefix(s, aliasPrefix)}
	case strings.HasPrefix(s, githubPrefix):
		*a = Author{Kind: AuthorGitHub, Name: strings.TrimPrefix(s, githubPrefix)}
	default:
		*a = Author{Kind: AuthorGitHub, Name: s}
	}
	return nil
}

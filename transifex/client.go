// Package transifex implements a client for the Transifex REST API
// (JSON:API). It covers the subset of the API the sync pipeline needs:
// listing project resources, fetching untranslated and unreviewed
// strings with their source content, patching translations back, and
// driving async translation-file downloads.
package transifex

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/openedx/txsync/records"
)

// DefaultBaseURL is the production Transifex REST endpoint.
const DefaultBaseURL = "https://rest.api.transifex.com"

const contentType = "application/vnd.api+json"

// Client talks to the Transifex REST API for one organization/project.
type Client struct {
	baseURL      string
	organization string
	project      string
	http         *resty.Client

	// pollInterval controls how often download jobs are re-checked.
	pollInterval time.Duration
}

// New creates a Client. All three parameters are required.
func New(apiToken, organization, project string) (*Client, error) {
	if apiToken == "" || organization == "" || project == "" {
		return nil, fmt.Errorf("transifex: api token, organization and project are all required")
	}
	c := resty.New().
		SetTimeout(60 * time.Second).
		SetHeader("Authorization", "Bearer "+apiToken).
		SetHeader("Content-Type", contentType)
	return &Client{
		baseURL:      DefaultBaseURL,
		organization: organization,
		project:      project,
		http:         c,
		pollInterval: 2 * time.Second,
	}, nil
}

// SetBaseURL overrides the API endpoint. Used by tests.
func (c *Client) SetBaseURL(u string) {
	c.baseURL = strings.TrimRight(u, "/")
}

// projectRef returns the JSON:API project identifier.
func (c *Client) projectRef() string {
	return fmt.Sprintf("o:%s:p:%s", c.organization, c.project)
}

// resourceRef returns the full JSON:API resource identifier for a slug.
// Accepts either a bare slug or an already-qualified id.
func (c *Client) resourceRef(resource string) string {
	slug := resource
	if i := strings.LastIndex(resource, ":"); i >= 0 {
		slug = resource[i+1:]
	}
	return fmt.Sprintf("%s:r:%s", c.projectRef(), slug)
}

// ---------------------------------------------------------------------------
// Errors
// ---------------------------------------------------------------------------

// APIError is returned when the API responds with a non-success status.
type APIError struct {
	StatusCode int
	URL        string
	Body       string
}

func (e *APIError) Error() string {
	body := e.Body
	if len(body) > 500 {
		body = body[:500] + "..."
	}
	return fmt.Sprintf("transifex: %s returned %d: %s", e.URL, e.StatusCode, body)
}

// ParseError is returned when a response does not match the expected
// JSON:API document shape.
type ParseError struct {
	URL string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("transifex: parsing response from %s: %v", e.URL, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

func checkResponse(r *resty.Response) error {
	if r.IsError() {
		return &APIError{
			StatusCode: r.StatusCode(),
			URL:        r.Request.URL,
			Body:       r.String(),
		}
	}
	return nil
}

// ---------------------------------------------------------------------------
// Resources
// ---------------------------------------------------------------------------

// Resource is one translatable resource of the project.
type Resource struct {
	// ID is the full JSON:API identifier (o:...:p:...:r:slug).
	ID string
	// Slug is the short resource identifier.
	Slug string
	// Name is the human-readable resource name.
	Name string
}

type pageLinks struct {
	Next string `json:"next"`
}

type resourceDocument struct {
	Data []struct {
		ID         string `json:"id"`
		Attributes struct {
			Slug string `json:"slug"`
			Name string `json:"name"`
		} `json:"attributes"`
	} `json:"data"`
	Links pageLinks `json:"links"`
}

// Resources lists all resources of the project, in API order.
func (c *Client) Resources(ctx context.Context) ([]Resource, error) {
	var out []Resource
	next := c.baseURL + "/resources"
	params := map[string]string{"filter[project]": c.projectRef()}

	for next != "" {
		var doc resourceDocument
		req := c.http.R().SetContext(ctx).SetResult(&doc)
		if params != nil {
			req.SetQueryParams(params)
			params = nil
		}
		r, err := req.Get(next)
		if err != nil {
			return nil, fmt.Errorf("listing resources: %w", err)
		}
		if err := checkResponse(r); err != nil {
			return nil, err
		}
		for _, d := range doc.Data {
			if d.ID == "" {
				return nil, &ParseError{URL: r.Request.URL, Err: fmt.Errorf("resource entry without id")}
			}
			out = append(out, Resource{ID: d.ID, Slug: d.Attributes.Slug, Name: d.Attributes.Name})
		}
		next = doc.Links.Next
	}
	return out, nil
}

// ---------------------------------------------------------------------------
// Resource translations
// ---------------------------------------------------------------------------

type translationDocument struct {
	Data []struct {
		ID         string `json:"id"`
		Attributes struct {
			Strings  map[string]string `json:"strings"`
			Reviewed bool              `json:"reviewed"`
		} `json:"attributes"`
		Relationships struct {
			ResourceString struct {
				Data struct {
					ID string `json:"id"`
				} `json:"data"`
			} `json:"resource_string"`
		} `json:"relationships"`
	} `json:"data"`
	Included []struct {
		Type       string `json:"type"`
		ID         string `json:"id"`
		Attributes struct {
			Key     string            `json:"key"`
			Context string            `json:"context"`
			Strings map[string]string `json:"strings"`
		} `json:"attributes"`
	} `json:"included"`
	Links pageLinks `json:"links"`
}

// UntranslatedStrings fetches all strings of a resource that have no
// translation for the language yet. The returned records carry the
// source string and an empty translation.
func (c *Client) UntranslatedStrings(ctx context.Context, resource, lang string, onProgress func(fetched int)) ([]records.Record, error) {
	return c.resourceStrings(ctx, resource, lang, "filter[translated]", onProgress)
}

// UnreviewedStrings fetches all translated-but-unreviewed strings of a
// resource. The returned records carry both the source string and the
// current translation.
func (c *Client) UnreviewedStrings(ctx context.Context, resource, lang string, onProgress func(fetched int)) ([]records.Record, error) {
	return c.resourceStrings(ctx, resource, lang, "filter[reviewed]", onProgress)
}

// resourceStrings pages through /resource_translations, joining each
// translation with its included resource_string to recover the source
// text, key and context.
func (c *Client) resourceStrings(ctx context.Context, resource, lang, filterKey string, onProgress func(fetched int)) ([]records.Record, error) {
	slug := resource
	if i := strings.LastIndex(resource, ":"); i >= 0 {
		slug = resource[i+1:]
	}

	params := map[string]string{
		"filter[resource]": c.resourceRef(resource),
		"filter[language]": "l:" + lang,
		"include":          "resource_string",
		filterKey:          "false",
	}

	var out []records.Record
	next := c.baseURL + "/resource_translations"

	for next != "" {
		var doc translationDocument
		req := c.http.R().SetContext(ctx).SetResult(&doc)
		if params != nil {
			req.SetQueryParams(params)
			params = nil
		}
		r, err := req.Get(next)
		if err != nil {
			return nil, fmt.Errorf("fetching strings for %s/%s: %w", slug, lang, err)
		}
		if err := checkResponse(r); err != nil {
			return nil, err
		}

		sources := make(map[string]struct {
			key, context, text string
		}, len(doc.Included))
		for _, inc := range doc.Included {
			if inc.Type != "resource_strings" {
				continue
			}
			sources[inc.ID] = struct{ key, context, text string }{
				key:     inc.Attributes.Key,
				context: inc.Attributes.Context,
				text:    inc.Attributes.Strings["other"],
			}
		}

		for _, d := range doc.Data {
			stringID := d.Relationships.ResourceString.Data.ID
			if stringID == "" {
				return nil, &ParseError{URL: r.Request.URL, Err: fmt.Errorf("translation %s has no resource_string relationship", d.ID)}
			}
			src, ok := sources[stringID]
			if !ok {
				return nil, &ParseError{URL: r.Request.URL, Err: fmt.Errorf("resource string %s missing from included section", stringID)}
			}
			out = append(out, records.Record{
				Resource:    slug,
				Key:         src.key,
				Source:      src.text,
				Translation: d.Attributes.Strings["other"],
				Context:     src.context,
			})
		}

		if onProgress != nil {
			onProgress(len(out))
		}
		next = doc.Links.Next
	}

	return out, nil
}

// ---------------------------------------------------------------------------
// Translation updates
// ---------------------------------------------------------------------------

type stringLookupDocument struct {
	Data []struct {
		ID string `json:"id"`
	} `json:"data"`
}

// resourceStringID finds the id of the resource string with the given
// key. Returns "" when the key does not exist.
func (c *Client) resourceStringID(ctx context.Context, resource, key string) (string, error) {
	var doc stringLookupDocument
	r, err := c.http.R().SetContext(ctx).
		SetQueryParams(map[string]string{
			"filter[resource]": c.resourceRef(resource),
			"filter[key]":      key,
		}).
		SetResult(&doc).
		Get(c.baseURL + "/resource_strings")
	if err != nil {
		return "", fmt.Errorf("looking up string %q: %w", key, err)
	}
	if err := checkResponse(r); err != nil {
		return "", err
	}
	if len(doc.Data) == 0 {
		return "", nil
	}
	return doc.Data[0].ID, nil
}

// translationID builds the resource_translations id for a string key
// and language. Returns "" when the key does not exist on the resource.
func (c *Client) translationID(ctx context.Context, resource, lang, key string) (string, error) {
	stringID, err := c.resourceStringID(ctx, resource, key)
	if err != nil {
		return "", err
	}
	if stringID == "" {
		return "", nil
	}
	return stringID + ":l:" + lang, nil
}

type translationPatch struct {
	Data struct {
		Type       string         `json:"type"`
		ID         string         `json:"id"`
		Attributes map[string]any `json:"attributes"`
	} `json:"data"`
}

func (c *Client) patchTranslation(ctx context.Context, id string, attributes map[string]any) error {
	var body translationPatch
	body.Data.Type = "resource_translations"
	body.Data.ID = id
	body.Data.Attributes = attributes

	r, err := c.http.R().SetContext(ctx).
		SetBody(body).
		Patch(c.baseURL + "/resource_translations/" + id)
	if err != nil {
		return fmt.Errorf("patching translation %s: %w", id, err)
	}
	return checkResponse(r)
}

// UpdateTranslation sets the translation of one string, identified by
// its key, for the given language.
func (c *Client) UpdateTranslation(ctx context.Context, resource, lang, key, translation string) error {
	id, err := c.translationID(ctx, resource, lang, key)
	if err != nil {
		return err
	}
	if id == "" {
		return fmt.Errorf("no resource string with key %q on %s", key, resource)
	}
	return c.patchTranslation(ctx, id, map[string]any{
		"strings": map[string]string{"other": translation},
	})
}

// ReviewTranslation marks the translation of one string as reviewed.
func (c *Client) ReviewTranslation(ctx context.Context, resource, lang, key string) error {
	id, err := c.translationID(ctx, resource, lang, key)
	if err != nil {
		return err
	}
	if id == "" {
		return fmt.Errorf("no resource string with key %q on %s", key, resource)
	}
	return c.patchTranslation(ctx, id, map[string]any{"reviewed": true})
}

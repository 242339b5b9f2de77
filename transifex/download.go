package transifex

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// ---------------------------------------------------------------------------
// Async translation-file downloads
// ---------------------------------------------------------------------------

// downloadTimeout bounds how long a single download job may take.
const downloadTimeout = 5 * time.Minute

type downloadJobRequest struct {
	Data struct {
		Type       string `json:"type"`
		Attributes struct {
			ContentEncoding string `json:"content_encoding"`
			FileType        string `json:"file_type"`
		} `json:"attributes"`
		Relationships struct {
			Language struct {
				Data struct {
					Type string `json:"type"`
					ID   string `json:"id"`
				} `json:"data"`
			} `json:"language"`
			Resource struct {
				Data struct {
					Type string `json:"type"`
					ID   string `json:"id"`
				} `json:"data"`
			} `json:"resource"`
		} `json:"relationships"`
	} `json:"data"`
}

type downloadJobDocument struct {
	Data struct {
		ID         string `json:"id"`
		Attributes struct {
			Status string `json:"status"`
			Errors []struct {
				Code   string `json:"code"`
				Detail string `json:"detail"`
			} `json:"errors"`
		} `json:"attributes"`
	} `json:"data"`
}

// CreateDownloadJob starts an async download of the translation file
// for a resource and language and returns the job id.
func (c *Client) CreateDownloadJob(ctx context.Context, resource, lang string) (string, error) {
	var body downloadJobRequest
	body.Data.Type = "resource_translations_async_downloads"
	body.Data.Attributes.ContentEncoding = "text"
	body.Data.Attributes.FileType = "default"
	body.Data.Relationships.Language.Data.Type = "languages"
	body.Data.Relationships.Language.Data.ID = "l:" + strings.TrimPrefix(lang, "l:")
	body.Data.Relationships.Resource.Data.Type = "resources"
	body.Data.Relationships.Resource.Data.ID = c.resourceRef(resource)

	var doc downloadJobDocument
	r, err := c.http.R().SetContext(ctx).
		SetBody(body).
		SetResult(&doc).
		Post(c.baseURL + "/resource_translations_async_downloads")
	if err != nil {
		return "", fmt.Errorf("creating download job: %w", err)
	}
	if err := checkResponse(r); err != nil {
		return "", err
	}
	if doc.Data.ID == "" {
		return "", &ParseError{URL: r.Request.URL, Err: fmt.Errorf("download job response without id")}
	}
	return doc.Data.ID, nil
}

// DownloadStatus is the result of one job status check.
type DownloadStatus struct {
	// Done is true once the file content is available.
	Done bool
	// Failed is true when the job ended in an error state.
	Failed bool
	// Errors holds the job error details when Failed.
	Errors []string
	// Content is the translation file content when Done.
	Content []byte
}

// CheckDownload polls a download job once. When the job has completed,
// Transifex redirects the status request to the generated file, so a
// finished check returns the file content directly.
func (c *Client) CheckDownload(ctx context.Context, jobID string) (*DownloadStatus, error) {
	r, err := c.http.R().SetContext(ctx).
		Get(c.baseURL + "/resource_translations_async_downloads/" + jobID)
	if err != nil {
		return nil, fmt.Errorf("checking download job %s: %w", jobID, err)
	}
	if err := checkResponse(r); err != nil {
		return nil, err
	}

	ct := strings.ToLower(r.Header().Get("Content-Type"))
	if i := strings.Index(ct, ";"); i >= 0 {
		ct = ct[:i]
	}
	if ct != contentType {
		// Redirected to the generated file.
		return &DownloadStatus{Done: true, Content: r.Body()}, nil
	}

	var doc downloadJobDocument
	if err := json.Unmarshal(r.Body(), &doc); err != nil {
		return nil, &ParseError{URL: r.Request.URL, Err: err}
	}
	switch doc.Data.Attributes.Status {
	case "failed":
		st := &DownloadStatus{Failed: true}
		for _, e := range doc.Data.Attributes.Errors {
			st.Errors = append(st.Errors, fmt.Sprintf("%s: %s", e.Code, e.Detail))
		}
		return st, nil
	default:
		// pending or processing
		return &DownloadStatus{}, nil
	}
}

// DownloadTranslation creates a download job and polls it to
// completion, returning the translation file content.
func (c *Client) DownloadTranslation(ctx context.Context, resource, lang string) ([]byte, error) {
	jobID, err := c.CreateDownloadJob(ctx, resource, lang)
	if err != nil {
		return nil, err
	}

	deadline := time.Now().Add(downloadTimeout)
	for {
		st, err := c.CheckDownload(ctx, jobID)
		if err != nil {
			return nil, err
		}
		if st.Done {
			return st.Content, nil
		}
		if st.Failed {
			return nil, fmt.Errorf("download job %s failed: %s", jobID, strings.Join(st.Errors, "; "))
		}
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("download job %s did not finish within %s", jobID, downloadTimeout)
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(c.pollInterval):
		}
	}
}

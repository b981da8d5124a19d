// Package problems resolves problem metadata by external identifier through
// a chain of fallback tiers: a structured GraphQL lookup, an unstructured
// REST lookup, and finally a persistent write-back cache.
package problems

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Cache is the persistent last-resort tier. Values are raw JSON so records
// written before the common schema stay readable.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Put(ctx context.Context, key string, value []byte) error
}

type Resolver struct {
	GraphQLEndpoint string
	AltBaseURL      string

	GraphQLTimeout time.Duration
	AltTimeout     time.Duration

	HTTPClient *http.Client
	Cache      Cache
	Logger     *slog.Logger
}

const findSlugQuery = `
query problemsetQuestionList($filters: QuestionListFilterInput) {
  problemsetQuestionList: questionList(categorySlug: "", limit: 5, skip: 0, filters: $filters) {
    questions: data {
      frontendQuestionId: questionFrontendId
      title
      titleSlug
      difficulty
      topicTags { name }
    }
  }
}`

const questionDetailQuery = `
query questionData($titleSlug: String!) {
  question(titleSlug: $titleSlug) {
    questionFrontendId
    title
    titleSlug
    content
    difficulty
    topicTags { name }
    exampleTestcaseList
  }
}`

// lookup carries per-resolution state across tiers. The structured tier may
// discover a slug that the unstructured tier reuses after a detail-fetch
// failure.
type lookup struct {
	num  string
	slug string
}

// Resolve returns the metadata for an external identifier, or a synthetic
// record wrapping freeform text verbatim when one is supplied. The second
// return is false when nothing could be resolved. Resolution failures are
// never errors; each tier either produces a record or falls through.
func (r *Resolver) Resolve(ctx context.Context, externalID, freeform string) (*Metadata, bool) {
	if strings.TrimSpace(freeform) != "" {
		return &Metadata{
			Title:       "Custom Problem",
			Description: freeform,
			Constraints: []string{},
			Examples:    []any{},
			TopicTags:   []string{},
		}, true
	}

	num := strings.TrimLeft(strings.TrimSpace(externalID), "0")
	if num == "" {
		return nil, false
	}

	lk := &lookup{num: num}
	if n, err := strconv.Atoi(num); err == nil {
		lk.slug = slugByNumber[n]
	}

	tiers := []func(context.Context, *lookup) (*Metadata, bool){
		r.fetchStructured,
		r.fetchUnstructured,
		r.fetchCached,
	}
	for _, tier := range tiers {
		if md, ok := tier(ctx, lk); ok {
			return md, true
		}
	}
	return nil, false
}

// fetchStructured is the primary tier: resolve a slug (static table, then
// keyword search), then fetch full details. Writes through to the cache on
// success.
func (r *Resolver) fetchStructured(ctx context.Context, lk *lookup) (*Metadata, bool) {
	ctx, cancel := context.WithTimeout(ctx, r.GraphQLTimeout)
	defer cancel()

	if lk.slug == "" {
		slug, err := r.searchSlug(ctx, lk.num)
		if err != nil {
			r.logf("structured slug search failed", lk.num, err)
			return nil, false
		}
		lk.slug = slug
	}
	if lk.slug == "" {
		return nil, false
	}

	md, err := r.fetchDetail(ctx, lk.slug)
	if err != nil {
		r.logf("structured detail fetch failed", lk.num, err)
		return nil, false
	}
	if md == nil {
		return nil, false
	}
	r.writeCache(ctx, lk.num, md)
	return md, true
}

func (r *Resolver) searchSlug(ctx context.Context, num string) (string, error) {
	var resp struct {
		Data struct {
			ProblemsetQuestionList struct {
				Questions []struct {
					FrontendQuestionID string `json:"frontendQuestionId"`
					TitleSlug          string `json:"titleSlug"`
				} `json:"questions"`
			} `json:"problemsetQuestionList"`
		} `json:"data"`
	}
	body := map[string]any{
		"query":     findSlugQuery,
		"variables": map[string]any{"filters": map[string]any{"searchKeywords": num}},
	}
	if err := r.postGraphQL(ctx, body, &resp); err != nil {
		return "", err
	}

	questions := resp.Data.ProblemsetQuestionList.Questions
	for _, q := range questions {
		if q.FrontendQuestionID == num {
			return q.TitleSlug, nil
		}
	}
	if len(questions) > 0 {
		return questions[0].TitleSlug, nil
	}
	return "", nil
}

func (r *Resolver) fetchDetail(ctx context.Context, slug string) (*Metadata, error) {
	var resp struct {
		Data struct {
			Question *struct {
				Title               string `json:"title"`
				Content             string `json:"content"`
				Difficulty          string `json:"difficulty"`
				ExampleTestcaseList []string `json:"exampleTestcaseList"`
				TopicTags           []struct {
					Name string `json:"name"`
				} `json:"topicTags"`
			} `json:"question"`
		} `json:"data"`
	}
	body := map[string]any{
		"query":     questionDetailQuery,
		"variables": map[string]any{"titleSlug": slug},
	}
	if err := r.postGraphQL(ctx, body, &resp); err != nil {
		return nil, err
	}

	q := resp.Data.Question
	if q == nil || q.Content == "" {
		return nil, nil
	}
	md := &Metadata{
		Title:       q.Title,
		Description: q.Content,
		Difficulty:  q.Difficulty,
		Constraints: []string{},
		Examples:    []any{},
		TopicTags:   []string{},
	}
	for _, ex := range q.ExampleTestcaseList {
		md.Examples = append(md.Examples, ex)
	}
	for _, t := range q.TopicTags {
		md.TopicTags = append(md.TopicTags, t.Name)
	}
	return md, nil
}

func (r *Resolver) postGraphQL(ctx context.Context, body map[string]any, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.GraphQLEndpoint, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Referer", "https://leetcode.com")
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := r.httpClient().Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("graphql endpoint returned %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// fetchUnstructured is the secondary tier, reachable only when a slug is
// known but the structured detail fetch produced nothing.
func (r *Resolver) fetchUnstructured(ctx context.Context, lk *lookup) (*Metadata, bool) {
	if lk.slug == "" {
		return nil, false
	}

	ctx, cancel := context.WithTimeout(ctx, r.AltTimeout)
	defer cancel()

	u := strings.TrimRight(r.AltBaseURL, "/") + "/select?titleSlug=" + url.QueryEscape(lk.slug)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, false
	}
	resp, err := r.httpClient().Do(req)
	if err != nil {
		r.logf("unstructured fetch failed", lk.num, err)
		return nil, false
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, false
	}

	var raw map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, false
	}
	if firstString(raw, "questionTitle") == "" && firstString(raw, "content") == "" {
		return nil, false
	}
	md := normalizeRaw(raw)
	r.writeCache(ctx, lk.num, md)
	return md, true
}

// fetchCached is the last-resort tier: a direct cache lookup by normalized
// identifier.
func (r *Resolver) fetchCached(ctx context.Context, lk *lookup) (*Metadata, bool) {
	if r.Cache == nil {
		return nil, false
	}
	data, ok, err := r.Cache.Get(ctx, lk.num)
	if err != nil || !ok {
		return nil, false
	}
	md := decodeCached(data)
	if md == nil {
		return nil, false
	}
	return md, true
}

func (r *Resolver) writeCache(ctx context.Context, key string, md *Metadata) {
	if r.Cache == nil {
		return
	}
	data, err := json.Marshal(md)
	if err != nil {
		return
	}
	if err := r.Cache.Put(ctx, key, data); err != nil {
		r.logf("cache write failed", key, err)
	}
}

func (r *Resolver) httpClient() *http.Client {
	if r.HTTPClient != nil {
		return r.HTTPClient
	}
	return http.DefaultClient
}

func (r *Resolver) logf(msg, num string, err error) {
	if r.Logger != nil {
		r.Logger.Warn(msg, "problem", num, "error", err)
	}
}

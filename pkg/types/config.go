package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "kb-harvester/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// SiteConfig identifies the target knowledge-base site.
type SiteConfig struct {
	// BaseURL is the root address of the knowledge base.
	BaseURL string `json:"base_url" yaml:"base_url"`

	// SearchPath is the search endpoint relative to BaseURL; the query is
	// appended as the "q" parameter.
	SearchPath string `json:"search_path" yaml:"search_path"`

	// ContentPathMarker distinguishes article addresses from navigation
	// chrome; only links whose address contains it are treated as articles.
	ContentPathMarker string `json:"content_path_marker" yaml:"content_path_marker"`

	// Username and Password are the optional login credentials. They are
	// normally supplied through .secrets/ or the environment, not the
	// config file.
	Username string `json:"username,omitempty" yaml:"username,omitempty"`
	Password string `json:"password,omitempty" yaml:"password,omitempty"`
}

// SelectorConfig holds the cascading CSS selector candidate lists, ordered
// most-specific first. Each engine consumes its lists read-only and tries
// candidates in sequence until one yields a usable match. The defaults
// reflect one site's markup and are expected to drift; treat every list as
// swappable configuration.
type SelectorConfig struct {
	LoginForm     []string `json:"login_form" yaml:"login_form"`
	UsernameField []string `json:"username_field" yaml:"username_field"`
	PasswordField []string `json:"password_field" yaml:"password_field"`
	SubmitButton  []string `json:"submit_button" yaml:"submit_button"`

	// AuthIndicators are DOM signals whose presence means the session is
	// already authenticated (logout links, user menus).
	AuthIndicators []string `json:"auth_indicators" yaml:"auth_indicators"`

	// ResultItems locate entries on a search result page.
	ResultItems []string `json:"result_items" yaml:"result_items"`

	Title    []string `json:"title" yaml:"title"`
	Content  []string `json:"content" yaml:"content"`
	Date     []string `json:"date" yaml:"date"`
	Author   []string `json:"author" yaml:"author"`
	Category []string `json:"category" yaml:"category"`
	Tags     []string `json:"tags" yaml:"tags"`
}

// FetchConfig holds retry and pacing settings for page fetches.
type FetchConfig struct {
	HTTPConfig `yaml:",inline"`

	// MaxRetries is the number of extraction attempts per article (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`

	// RetryDelay is the fixed wait between extraction attempts (default 2s).
	RetryDelay time.Duration `json:"retry_delay" yaml:"retry_delay"`

	// RequestDelay is the pacing delay applied after each batch item
	// regardless of outcome (default 1s).
	RequestDelay time.Duration `json:"request_delay" yaml:"request_delay"`

	// SettleDelay is the pause after submitting the login form before the
	// authenticated state is re-checked (default 3s).
	SettleDelay time.Duration `json:"settle_delay" yaml:"settle_delay"`
}

// StoreConfig holds settings for the corpus store.
type StoreConfig struct {
	// DataDir is the storage directory for per-article records, the index
	// file, exports, and the optional search index database.
	DataDir string `json:"data_dir" yaml:"data_dir"`

	// FTSEnabled mirrors saved entries into a SQLite FTS5 index for ranked
	// full-text search. The mirror is best-effort and never authoritative.
	FTSEnabled bool `json:"fts_enabled" yaml:"fts_enabled"`

	// MaxResults caps search result counts. Zero means unlimited for the
	// substring scan and 20 for FTS queries.
	MaxResults int `json:"max_results" yaml:"max_results"`
}

// BatchConfig holds settings for the batch orchestrator.
type BatchConfig struct {
	// MaxArticles caps the number of titles processed per run (default 50).
	MaxArticles int `json:"max_articles" yaml:"max_articles"`
}

// PipelineConfig groups all stage configurations.
type PipelineConfig struct {
	Site      SiteConfig     `json:"site" yaml:"site"`
	Selectors SelectorConfig `json:"selectors" yaml:"selectors"`
	Fetch     FetchConfig    `json:"fetch" yaml:"fetch"`
	Store     StoreConfig    `json:"store" yaml:"store"`
	Batch     BatchConfig    `json:"batch" yaml:"batch"`
}

// DefaultSelectors returns the built-in selector cascade. The first entry
// of each list is the slot a site-specific override lands in.
func DefaultSelectors() SelectorConfig {
	return SelectorConfig{
		LoginForm:     []string{`form[action*="login"]`, `form[method="post"]`, `form`},
		UsernameField: []string{`input[name="username"]`, `input[type="email"]`, `input[type="text"]`},
		PasswordField: []string{`input[name="password"]`, `input[type="password"]`},
		SubmitButton:  []string{`button[type="submit"]`, `input[type="submit"]`},
		AuthIndicators: []string{
			`[href*="logout"]`,
			`.user-menu`,
			`.user-info`,
			`.logout`,
			`[class*="profile"]`,
		},
		ResultItems: []string{
			`a[href*="/content/"]`,
			`.search-result a`,
			`.result-item a`,
			`[class*="result"] a`,
			`.article-item a`,
			`.content-item a`,
		},
		Title: []string{
			`h1`,
			`.article-title`,
			`.page-title`,
			`h2`,
			`.title`,
			`[class*="title"]`,
			`[class*="header"]`,
		},
		Content: []string{
			`article`,
			`.article-content`,
			`.content`,
			`.post-content`,
			`.main-content`,
			`.body-content`,
			`[class*="content"]`,
			`[class*="article"]`,
		},
		Date:     []string{`.date`, `.published`, `.created`, `[class*="date"]`},
		Author:   []string{`.author`, `.byline`, `[class*="author"]`},
		Category: []string{`.category`, `.topic`, `[class*="category"]`},
		Tags:     []string{`.tags a`, `.tags li`, `.tag`},
	}
}

// DefaultPipelineConfig returns a PipelineConfig with working defaults for
// everything except the site address and credentials.
func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{
		Site: SiteConfig{
			SearchPath:        "/search",
			ContentPathMarker: "/content/",
		},
		Selectors: DefaultSelectors(),
		Fetch: FetchConfig{
			HTTPConfig: HTTPConfig{
				Timeout:   30 * time.Second,
				UserAgent: "kb-harvester/0.1",
			},
			MaxRetries:   3,
			RetryDelay:   2 * time.Second,
			RequestDelay: time.Second,
			SettleDelay:  3 * time.Second,
		},
		Store: StoreConfig{
			DataDir:    "data",
			FTSEnabled: true,
		},
		Batch: BatchConfig{
			MaxArticles: 50,
		},
	}
}

package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"viralpik/internal/models"
	"viralpik/internal/submission"
)

// ErrNotSignedIn is returned by calls that need a session when there is none.
var ErrNotSignedIn = errors.New("client: not signed in")

// APIError is a non-2xx response.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("api %d %s: %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("api %d: %s", e.Status, e.Message)
}

// Gateway calls the ViralPik HTTP API on behalf of a Session. Calls are not
// retried.
type Gateway struct {
	baseURL string
	http    *http.Client
	session *Session
}

// GatewayOption configures a Gateway.
type GatewayOption func(*Gateway)

// WithHTTPClient replaces the default client.
func WithHTTPClient(c *http.Client) GatewayOption {
	return func(g *Gateway) { g.http = c }
}

func NewGateway(baseURL string, session *Session, opts ...GatewayOption) *Gateway {
	g := &Gateway{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 2 * time.Minute},
		session: session,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Session returns the session the gateway authenticates with.
func (g *Gateway) Session() *Session { return g.session }

func (g *Gateway) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, g.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if tok := g.session.Token(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	return req, nil
}

func (g *Gateway) do(req *http.Request, out any) error {
	resp, err := g.http.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusTooManyRequests {
		var body models.ErrorResponse
		_ = json.NewDecoder(resp.Body).Decode(&body)
		if body.Code == models.CodeRateLimited && body.Tier != "" {
			return &models.RateLimitError{Tier: models.Tier(body.Tier), Limit: body.Limit}
		}
		return &APIError{Status: resp.StatusCode, Code: body.Code, Message: body.Error}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var body models.ErrorResponse
		_ = json.NewDecoder(resp.Body).Decode(&body)
		if body.Error == "" {
			body.Error = http.StatusText(resp.StatusCode)
		}
		return &APIError{Status: resp.StatusCode, Code: body.Code, Message: body.Error}
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (g *Gateway) call(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}
	req, err := g.newRequest(ctx, method, path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return g.do(req, out)
}

func (g *Gateway) requireSession() error {
	if !g.session.Authenticated() {
		return ErrNotSignedIn
	}
	return nil
}

// AuthResult is returned by signup and login.
type AuthResult struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// SignUp creates an account and signs the session in.
func (g *Gateway) SignUp(ctx context.Context, email, password, username string) (*AuthResult, error) {
	var res AuthResult
	in := map[string]string{"email": email, "password": password, "username": username}
	if err := g.call(ctx, http.MethodPost, "/api/auth/signup", in, &res); err != nil {
		return nil, err
	}
	g.session.SignIn(res.Token, res.User)
	return &res, nil
}

// SignIn authenticates and populates the session.
func (g *Gateway) SignIn(ctx context.Context, email, password string) (*AuthResult, error) {
	var res AuthResult
	in := map[string]string{"email": email, "password": password}
	if err := g.call(ctx, http.MethodPost, "/api/auth/login", in, &res); err != nil {
		return nil, err
	}
	g.session.SignIn(res.Token, res.User)
	return &res, nil
}

// SignOut revokes the token server side and always clears the session.
func (g *Gateway) SignOut(ctx context.Context) error {
	if !g.session.Authenticated() {
		return nil
	}
	err := g.call(ctx, http.MethodPost, "/api/auth/logout", nil, nil)
	g.session.SignOut()
	return err
}

// UsernameAvailable asks whether username can be claimed.
func (g *Gateway) UsernameAvailable(ctx context.Context, username string) (bool, error) {
	var res struct {
		Available bool `json:"available"`
	}
	path := "/api/auth/username-available?u=" + url.QueryEscape(username)
	if err := g.call(ctx, http.MethodGet, path, nil, &res); err != nil {
		return false, err
	}
	return res.Available, nil
}

// Upload sends one file as multipart form data and reports progress.
func (g *Gateway) Upload(ctx context.Context, f *submission.File, progress submission.ProgressFunc) (submission.UploadResult, error) {
	var res submission.UploadResult
	if err := g.requireSession(); err != nil {
		return res, err
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", f.Name)
	if err != nil {
		return res, err
	}
	if _, err := part.Write(f.Data); err != nil {
		return res, err
	}
	if err := mw.Close(); err != nil {
		return res, err
	}

	total := int64(buf.Len())
	req, err := g.newRequest(ctx, http.MethodPost, "/api/upload", &progressReader{r: &buf, total: total, fn: progress})
	if err != nil {
		return res, err
	}
	req.ContentLength = total
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if err := g.do(req, &res); err != nil {
		return res, err
	}
	return res, nil
}

type progressReader struct {
	r     io.Reader
	sent  int64
	total int64
	fn    submission.ProgressFunc
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 {
		p.sent += int64(n)
		if p.fn != nil {
			p.fn(p.sent, p.total)
		}
	}
	return n, err
}

// CreateAsset inserts the asset row. The server decides the final status.
func (g *Gateway) CreateAsset(ctx context.Context, a *models.Asset) (*models.Asset, error) {
	if err := g.requireSession(); err != nil {
		return nil, err
	}
	body := assetBody{
		Title:       a.Title,
		Description: a.Description,
		Platform:    a.Platform,
		AssetType:   a.AssetType,
		Tags:        a.Tags,
		FileURL:     a.FileURL,
		PreviewURL:  a.PreviewURL,
		FileSize:    a.FileSize,
		IsPremium:   a.IsPremium,
		Price:       a.Price,
	}
	if d, ok := a.Dimensions(); ok {
		body.Width, body.Height = d.Width, d.Height
	}
	var out models.Asset
	if err := g.call(ctx, http.MethodPost, "/api/assets", body, &out); err != nil {
		return nil, err
	}
	out.FileURL = out.SourceURL
	return &out, nil
}

// assetBody is the POST /api/assets payload. Asset hides its file URL when
// marshalled, so the upload location travels here explicitly.
type assetBody struct {
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Platform    models.Platform `json:"platform"`
	AssetType   string          `json:"asset_type"`
	Tags        []string        `json:"tags"`
	FileURL     string          `json:"file_url"`
	PreviewURL  string          `json:"preview_url"`
	FileSize    int64           `json:"file_size"`
	Width       int             `json:"width,omitempty"`
	Height      int             `json:"height,omitempty"`
	IsPremium   bool            `json:"is_premium"`
	Price       float64         `json:"price"`
}

// Enrich queues background enrichment. Callers ignore the result.
func (g *Gateway) Enrich(ctx context.Context, assetID uint) error {
	return g.call(ctx, http.MethodPost, "/api/enrich", map[string]uint{"assetId": assetID}, nil)
}

// GetAsset loads an asset detail page and counts a view.
func (g *Gateway) GetAsset(ctx context.Context, id uint) (*models.Asset, error) {
	var out models.Asset
	if err := g.call(ctx, http.MethodGet, "/api/assets/"+strconv.FormatUint(uint64(id), 10), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func assetPath(id uint, action string) string {
	return "/api/assets/" + strconv.FormatUint(uint64(id), 10) + "/" + action
}

func (g *Gateway) toggle(ctx context.Context, on bool, path string, in any) error {
	method := http.MethodPost
	if !on {
		method = http.MethodDelete
		in = nil
	}
	return g.call(ctx, method, path, in, nil)
}

func (g *Gateway) SetLiked(ctx context.Context, assetID uint, liked bool) error {
	return g.toggle(ctx, liked, assetPath(assetID, "like"), nil)
}

func (g *Gateway) SetSaved(ctx context.Context, assetID uint, saved bool) error {
	return g.toggle(ctx, saved, assetPath(assetID, "save"), nil)
}

func (g *Gateway) SetFollowing(ctx context.Context, userID uint, following bool) error {
	path := "/api/users/" + strconv.FormatUint(uint64(userID), 10) + "/follow"
	return g.toggle(ctx, following, path, nil)
}

// DownloadGrant authorizes one download.
type DownloadGrant struct {
	DownloadURL string      `json:"downloadUrl"`
	Remaining   int         `json:"remaining"`
	Tier        models.Tier `json:"tier"`
}

// AuthorizeDownload asks the server for a download. A tier limit comes back
// as *models.RateLimitError.
func (g *Gateway) AuthorizeDownload(ctx context.Context, assetID uint) (*DownloadGrant, error) {
	var out DownloadGrant
	if err := g.call(ctx, http.MethodPost, "/api/download", map[string]uint{"assetId": assetID}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Fetch streams the bytes behind a download URL. Relative URLs resolve
// against the API base.
func (g *Gateway) Fetch(ctx context.Context, rawURL string) (io.ReadCloser, error) {
	if strings.HasPrefix(rawURL, "/") {
		rawURL = g.baseURL + rawURL
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := g.http.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		return nil, &APIError{Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
	}
	return resp.Body, nil
}

package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"golang.org/x/oauth2"
)

// kakaoEndpoint is Kakao's OAuth 2.0 authorization-code endpoint pair.
// x/oauth2 ships predefined endpoints for the big western providers only,
// so Kakao's is spelled out here.
var kakaoEndpoint = oauth2.Endpoint{
	AuthURL:  "https://kauth.kakao.com/oauth/authorize",
	TokenURL: "https://kauth.kakao.com/oauth/token",
}

const (
	kakaoProfileURL = "https://kapi.kakao.com/v2/user/me"
	kakaoUnlinkURL  = "https://kapi.kakao.com/v1/user/unlink"
)

// KakaoUser is the slice of Kakao's /v2/user/me response we care about:
// the stable numeric user id and the account email.
type KakaoUser struct {
	ID           int64 `json:"id"`
	KakaoAccount struct {
		Email string `json:"email"`
	} `json:"kakao_account"`
}

// KakaoProvider wraps golang.org/x/oauth2 for the Kakao authorization-code
// flow, plus the admin-key unlink call used on account withdrawal.
//
// The code-for-token exchange happens server-to-server with the client
// secret; the access token never reaches the browser.
type KakaoProvider struct {
	config   *oauth2.Config
	adminKey string

	// overridable in tests
	profileURL string
	unlinkURL  string
	client     *http.Client
}

// NewKakaoProvider creates a KakaoProvider from the Kakao app credentials.
// redirectURI must exactly match the one registered in the Kakao console.
func NewKakaoProvider(clientID, clientSecret, redirectURI, adminKey string) *KakaoProvider {
	return &KakaoProvider{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURI,
			Endpoint:     kakaoEndpoint,
		},
		adminKey:   adminKey,
		profileURL: kakaoProfileURL,
		unlinkURL:  kakaoUnlinkURL,
		client:     http.DefaultClient,
	}
}

// AuthURL returns the URL the frontend sends the user to for authorization.
func (p *KakaoProvider) AuthURL(state string) string {
	return p.config.AuthCodeURL(state)
}

// Exchange trades the callback code for the Kakao user profile: first the
// code-for-token exchange, then an authenticated call to /v2/user/me.
func (p *KakaoProvider) Exchange(ctx context.Context, code string) (*KakaoUser, error) {
	token, err := p.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("auth: exchanging kakao code: %w", err)
	}

	// oauth2.Config.Client returns an *http.Client that attaches the
	// Bearer token to every request.
	client := p.config.Client(ctx, token)

	resp, err := client.Get(p.profileURL)
	if err != nil {
		return nil, fmt.Errorf("auth: calling kakao profile API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("auth: kakao profile API returned status %d", resp.StatusCode)
	}

	var user KakaoUser
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return nil, fmt.Errorf("auth: decoding kakao profile: %w", err)
	}
	if user.ID == 0 {
		return nil, fmt.Errorf("auth: kakao returned an invalid user (id = 0)")
	}

	return &user, nil
}

// Unlink severs the Kakao-side link for the given Kakao user id, using the
// app admin key. Called during Kakao account withdrawal, before the local
// soft delete.
func (p *KakaoProvider) Unlink(ctx context.Context, kakaoID int64) error {
	form := url.Values{
		"target_id_type": {"user_id"},
		"target_id":      {strconv.FormatInt(kakaoID, 10)},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.unlinkURL,
		strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("auth: building kakao unlink request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Authorization", "KakaoAK "+p.adminKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("auth: calling kakao unlink API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("auth: kakao unlink API returned status %d", resp.StatusCode)
	}
	return nil
}

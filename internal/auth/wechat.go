// Package auth はWeChatログインフローとトークン発行を提供する。
package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/hitoshi/bprecord/internal/model"
)

const defaultCode2SessionURL = "https://api.weixin.qq.com/sns/jscode2session"

// WxSession はjscode2sessionエンドポイントが返すセッション情報。
type WxSession struct {
	OpenID     string `json:"openid"`
	SessionKey string `json:"session_key"`
}

// WechatClientConfig はWeChat識別子交換クライアントの設定。
type WechatClientConfig struct {
	AppID     string
	AppSecret string

	// テスト用にオーバーライド可能なURL
	Code2SessionURL string
}

// WechatClient はワンタイムコードをopenid + session_keyに交換する。
type WechatClient struct {
	config WechatClientConfig
	client *http.Client
}

// NewWechatClient はWechatClientを生成する。
func NewWechatClient(config WechatClientConfig) *WechatClient {
	if config.Code2SessionURL == "" {
		config.Code2SessionURL = defaultCode2SessionURL
	}
	return &WechatClient{
		config: config,
		client: http.DefaultClient,
	}
}

// Code2Session はワンタイムコードをWeChatのセッション情報に交換する。
// コードが空の場合はネットワーク呼び出しの前にMISSING_CREDENTIALSを返す。
// 通信障害・パース不能・openid欠落はすべてWRONG_CREDENTIALSに畳み込む。
// 呼び出し側はネットワーク障害とコード不正を区別できない（意図した仕様）。
func (c *WechatClient) Code2Session(ctx context.Context, code string) (*WxSession, error) {
	if code == "" {
		return nil, model.NewMissingCredentialsError()
	}

	params := url.Values{
		"appid":      {c.config.AppID},
		"secret":     {c.config.AppSecret},
		"js_code":    {code},
		"grant_type": {"authorization_code"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.Code2SessionURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("リクエストの生成に失敗しました: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, model.NewWrongCredentialsError()
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, model.NewWrongCredentialsError()
	}

	var session WxSession
	if err := json.Unmarshal(body, &session); err != nil {
		return nil, model.NewWrongCredentialsError()
	}

	if session.OpenID == "" {
		return nil, model.NewWrongCredentialsError()
	}

	return &session, nil
}

package server

import (
	"crypto/subtle"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	commonhttp "github.com/ps1339880-hash/webhook-visitor/internal/interfaces/http/common"
)

type authClaims struct {
	jwt.RegisteredClaims
}

// authMiddleware は Basic 認証または Bearer JWT を検証し、呼び出し元をコンテキストへ詰める。
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := strings.TrimSpace(r.Header.Get("Authorization"))
		if authHeader == "" {
			s.unauthorized(w, "Authorization ヘッダーがありません")
			return
		}

		scheme, credentials, _ := strings.Cut(authHeader, " ")
		credentials = strings.TrimSpace(credentials)

		var principal commonhttp.Principal
		switch strings.ToLower(scheme) {
		case commonhttp.SchemeBasic:
			if s.basicUser == "" {
				s.unauthorized(w, "Basic 認証は無効です")
				return
			}
			user, pass, ok := r.BasicAuth()
			if !ok || !s.checkBasic(user, pass) {
				s.unauthorized(w, "ユーザー名またはパスワードが正しくありません")
				return
			}
			principal = commonhttp.Principal{Subject: user, Scheme: commonhttp.SchemeBasic}

		case commonhttp.SchemeBearer:
			if credentials == "" {
				s.unauthorized(w, "アクセストークンが空です")
				return
			}
			claims, err := s.parseAuthToken(credentials)
			if err != nil {
				s.unauthorized(w, err.Error())
				return
			}
			principal = commonhttp.Principal{
				Subject: claims.Subject,
				Issuer:  claims.Issuer,
				Scheme:  commonhttp.SchemeBearer,
			}

		default:
			s.unauthorized(w, "Basic または Bearer で認証してください")
			return
		}

		ctx := commonhttp.ContextWithPrincipal(r.Context(), principal)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) checkBasic(user, pass string) bool {
	userOK := subtle.ConstantTimeCompare([]byte(user), []byte(s.basicUser)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(pass), []byte(s.basicPass)) == 1
	return userOK && passOK
}

func (s *Server) unauthorized(w http.ResponseWriter, message string) {
	if s.basicUser != "" {
		w.Header().Set("WWW-Authenticate", fmt.Sprintf("Basic realm=%q", commonhttp.BasicRealm))
	}
	commonhttp.WriteError(s.logger, w, http.StatusUnauthorized, message)
}

// parseAuthToken は複数の JWT 設定を順番に試し、署名と Issuer/Audience を確認する。
func (s *Server) parseAuthToken(tokenString string) (*authClaims, error) {
	if len(s.jwtConfigs) == 0 {
		return nil, fmt.Errorf("Bearer 認証は無効です")
	}

	for _, cfg := range s.jwtConfigs {
		claims := &authClaims{}
		token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
			if token.Method != jwt.SigningMethodHS256 {
				return nil, fmt.Errorf("unexpected signing method: %s", token.Method.Alg())
			}
			return cfg.Secret, nil
		}, jwt.WithLeeway(30*time.Second))

		if err != nil || !token.Valid {
			continue
		}
		if cfg.Issuer != "" && claims.Issuer != cfg.Issuer {
			continue
		}
		if claims.Subject == "" {
			continue
		}
		if s.jwtAudience != "" && !slices.Contains(claims.Audience, s.jwtAudience) {
			continue
		}

		return claims, nil
	}

	return nil, fmt.Errorf("アクセストークンが無効です")
}

package models

import jwt "github.com/dgrijalva/jwt-go"

// PlayerClaims are the JWT claims embedded in player identity tokens.
type PlayerClaims struct {
	PlayerID   string `json:"playerId"`
	PlayerName string `json:"playerName"`
	jwt.StandardClaims
}

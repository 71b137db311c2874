// Copyright 2026 The Accessgate Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Command token mints a signed bearer token for operators and local
// testing. Production tokens come from the upstream identity provider;
// this tool only needs the shared signing secret.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

func main() {
	subject := flag.String("subject", "operator", "token subject")
	permissions := flag.String("permissions", "rights:admin", "comma-separated permission list")
	ttl := flag.Duration("ttl", time.Hour, "token lifetime")
	flag.Parse()

	secret := os.Getenv("AUTH_JWT_SECRET")
	if secret == "" {
		fmt.Println("AUTH_JWT_SECRET is required")
		os.Exit(1)
	}

	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":         *subject,
		"jti":         uuid.NewString(),
		"iat":         now.Unix(),
		"exp":         now.Add(*ttl).Unix(),
		"permissions": strings.Split(*permissions, ","),
	})

	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		fmt.Printf("Failed to sign token: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(signed)
}

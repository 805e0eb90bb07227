// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package cliparse handles command-line argument parsing and configuration.

# Precedence

Each setting is resolved in order: CLI flag, environment variable, the
.env file (loaded with godotenv, never overriding the environment), then
the default.

	cfg, err := cliparse.ParseFlags(os.Args[1:])

# Settings

	-p                 PORT              Server port (default 3318)
	-t                 DATABASE_TYPE     sqlite or postgres (default sqlite)
	-d                 DATABASE_URL      Connection string (required for postgres)
	-a                 HASH_ALGORITHM    md5, sha256, sha3-256 or blake3 (default md5)
	-display-cap       DISPLAY_CAP       Ranked entries shown (default 1000)
	-max-participants  MAX_PARTICIPANTS  Participant ceiling (default 100000)
	-base-url          SHARE_BASE_URL    Prefix for share URLs
	-admin-salt        ADMIN_KEY_SALT    Secret for admin key HMAC (required)
	-slug-salt         DRAW_SLUG_SALT    Secret for share slugs (required)
	-env-file                            Path of the .env file, "" to skip

Config.NewEngine builds a draw engine from the parsed settings.
*/
package cliparse

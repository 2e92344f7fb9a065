// Package config holds the bingo server's process settings.
//
// Settings come from command-line flags, each backed by an environment
// variable (APP_NAME, APP_HOST, APP_PORT, ROOM_CODE_LENGTH, ORIGINS,
// LOG_LEVEL, LOG_FORMAT). A .env file in the working directory is loaded
// before flags are parsed.
//
// Origins:
//
// ORIGINS is a comma-separated list of browser origins allowed to call the
// REST API and open WebSockets. "*" allows any origin.
package config

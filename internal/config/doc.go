// Package config handles configuration loading for easyshop-api.
//
// # Overview
//
// Configuration is assembled in three layers: built-in defaults, an optional
// config file, and environment variables. Later layers win.
//
// # Configuration File
//
// The file is optional. Its location comes from the --config flag or the
// EASYSHOP_CONFIG environment variable. Files ending in .toml are decoded with
// BurntSushi/toml; everything else as YAML.
//
//	server:
//	  http_addr: "0.0.0.0:8000"
//	database:
//	  url: "mongodb://localhost:27017"
//	  name: "easyshop"
//	identity:
//	  jwt_secret: "${SUPABASE_JWT_SECRET}"
//	llm:
//	  timeout: "2m"
//	  primary:
//	    provider: "openai"
//	    name: "gpt-5"
//
// Values may reference environment variables with ${VAR_NAME}.
//
// # Environment
//
// A .env file in the working directory is loaded first (existing variables are
// never overridden). Recognized variables:
//
//	DATABASE_URL (or MONGO_URL), DATABASE_NAME
//	SUPABASE_URL, SUPABASE_KEY, SUPABASE_JWT_SECRET
//	EMERGENT_LLM_KEY, LLM_BASE_URL, LLM_TIMEOUT
//	APP_NAME, DEBUG, HTTP_ADDR, LOG_LEVEL, LOG_FORMAT
//
// # Database URL
//
// The scheme of database.url picks the store backend: mongodb:// or
// mongodb+srv:// for MongoDB, postgres:// or postgresql:// for PostgreSQL, and
// anything else is treated as a SQLite file path.
package config

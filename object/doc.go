// Package object describes where a single object lives and how to reach it.
//
// A Locator carries the bucket and key together with the connection
// parameters (endpoint, region, keys, role) needed to build a client for it.
// Access keys are held as Secret values and are redacted in every
// rendering: String, GoString, fmt verbs, slog and JSON.
//
//	loc := object.New("images", "2024/cat.jpg")
//	loc.Region = "eu-central-1"
//	loc.SecretAccessKey = object.Secret(os.Getenv("SECRET"))
//
//	if err := loc.Validate(); err != nil {
//		return err
//	}
package object

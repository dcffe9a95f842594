// Package shared holds the environment-driven configuration used by the
// token ledger tools: network selection, Hedera operator credentials, ledger
// deployment parameters and logger construction.
//
// Values are read from the process environment. A .env file found in the
// working directory or one of its parents is loaded first; variables that
// are already set are never overridden.
package shared

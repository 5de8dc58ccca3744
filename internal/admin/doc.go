// Package admin implements the memberadmin operator commands.
//
// Usage:
//
//	memberadmin migrate [config flags]
//	memberadmin create-user -username u -email e -name n [-screenname s] [-role r] [-membership m] [config flags]
//
// create-user reads the password twice from the terminal without echo.
package admin

// Command hashpw prints the bcrypt hash for a staff password, ready to paste
// into the auth.users section of config.yaml.
package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"law-reports-backend/internal/auth"
)

func main() {
	var password string
	if len(os.Args) > 1 {
		password = os.Args[1]
	} else {
		fmt.Fprint(os.Stderr, "password: ")
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil && line == "" {
			fmt.Fprintln(os.Stderr, "no password given")
			os.Exit(1)
		}
		password = strings.TrimRight(line, "\r\n")
	}
	if len(password) < 8 || len(password) > 72 {
		fmt.Fprintln(os.Stderr, "password must be 8-72 chars")
		os.Exit(1)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	fmt.Println(hash)
}

package main

import (
	"context"
	"flag"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"sort"

	"vertex/internal/client"
)

const usage = `Usage: vertex [-server URL] <command> [args]

Commands:
  signup <username> <email> <password>   register and print a session key
  login <username> <password>            authenticate and print a session key
  token <username> <password>            fetch the session's live key
  upload <key> <path>                    upload a file
  list <key>                             list the account's files
  get <key> <id>                         show one file's metadata
  health                                 check the server is up
`

func main() {
	server := flag.String("server", "http://localhost:8080", "vertex server base URL")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(1)
	}

	c, err := client.New(*server)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := run(context.Background(), c, args[0], args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, c *client.Client, cmd string, args []string) error {
	switch cmd {
	case "signup":
		if len(args) != 3 {
			return fmt.Errorf("usage: vertex signup <username> <email> <password>")
		}
		key, err := c.Signup(ctx, args[0], args[1], args[2])
		if err != nil {
			return err
		}
		fmt.Printf("account created\nsession key: %s\n", key)
		return nil

	case "login":
		if len(args) != 2 {
			return fmt.Errorf("usage: vertex login <username> <password>")
		}
		key, err := c.Login(ctx, args[0], args[1])
		if err != nil {
			return err
		}
		fmt.Printf("logged in\nsession key: %s\n", key)
		return nil

	case "token":
		if len(args) != 2 {
			return fmt.Errorf("usage: vertex token <username> <password>")
		}
		key, err := c.Token(ctx, args[0], args[1])
		if err != nil {
			return err
		}
		fmt.Println(key)
		return nil

	case "upload":
		if len(args) != 2 {
			return fmt.Errorf("usage: vertex upload <key> <path>")
		}
		f, err := os.Open(args[1])
		if err != nil {
			return err
		}
		defer f.Close()

		name := filepath.Base(args[1])
		contentType := mime.TypeByExtension(filepath.Ext(name))
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		res, err := c.Upload(ctx, args[0], name, contentType, f)
		if err != nil {
			return err
		}
		fmt.Printf("uploaded %s (%s, %d bytes)\n", res.Filename, res.FileType, res.Size)
		return nil

	case "list":
		if len(args) != 1 {
			return fmt.Errorf("usage: vertex list <key>")
		}
		files, err := c.List(ctx, args[0])
		if err != nil {
			return err
		}
		if len(files) == 0 {
			fmt.Println("no files")
			return nil
		}
		printFiles(files)
		return nil

	case "get":
		if len(args) != 2 {
			return fmt.Errorf("usage: vertex get <key> <id>")
		}
		files, err := c.Get(ctx, args[0], args[1])
		if err != nil {
			return err
		}
		printFiles(files)
		return nil

	case "health":
		if err := c.Health(ctx); err != nil {
			return err
		}
		fmt.Println("ok")
		return nil

	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func printFiles(files map[string]client.FileEntry) {
	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		f := files[name]
		fmt.Printf("%s\n  id:      %s\n  type:    %s\n  size:    %d\n  created: %s\n  url:     %s\n",
			name, f.ID, f.Type, f.Size, f.CreatedAt.Format("2006-01-02 15:04:05"), f.URL)
	}
}

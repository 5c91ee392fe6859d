package main

import (
	"fmt"
	"net/http"

	"github.com/urfave/cli/v2"

	"github.com/jaywantadh/chunkstore/internal/chunker"
	"github.com/jaywantadh/chunkstore/internal/transfer"
	"github.com/jaywantadh/chunkstore/pkg/logging"
)

const timeLayout = "2006-01-02 15:04:05Z07:00"

func newClient(c *cli.Context) *transfer.Client {
	cfg := appConfig(c)
	return transfer.NewClient(cfg.ServerURL,
		transfer.WithTimeout(cfg.RequestTimeout),
		transfer.WithLogger(logging.Log),
	)
}

// addressArg parses the first argument as a chunk address before any
// request is made.
func addressArg(c *cli.Context) (chunker.Address, error) {
	if c.NArg() != 1 {
		return chunker.Address{}, cli.Exit(fmt.Sprintf("usage: %s %s", c.Command.Name, c.Command.ArgsUsage), exitUsage)
	}
	addr, err := chunker.ParseAddress(c.Args().First())
	if err != nil {
		return chunker.Address{}, cli.Exit(err.Error(), exitUsage)
	}
	return addr, nil
}

func printStatus(c *cli.Context, code int) {
	fmt.Fprintf(c.App.Writer, "> %d %s\n", code, http.StatusText(code))
}

func putCmd() *cli.Command {
	return &cli.Command{
		Name:      "put",
		Usage:     "Store a string as one chunk (padded or truncated to 64 bytes)",
		ArgsUsage: "<string>",
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return cli.Exit("usage: put <string>", exitUsage)
			}

			client := newClient(c)
			res, err := client.Store(c.Context, chunker.Encode([]byte(c.Args().First())))
			if err != nil {
				return failure(err)
			}

			printStatus(c, res.Status)
			fmt.Fprintln(c.App.Writer, transfer.ChunkURL(client.BaseURL(), res.Address))
			return nil
		},
	}
}

func getCmd() *cli.Command {
	return &cli.Command{
		Name:      "get",
		Usage:     "Fetch and verify a chunk by address",
		ArgsUsage: "<address>",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "raw", Usage: "Write the 64 raw bytes instead of the quoted payload"},
		},
		Action: func(c *cli.Context) error {
			addr, err := addressArg(c)
			if err != nil {
				return err
			}

			res, err := newClient(c).Fetch(c.Context, addr)
			if err != nil {
				return failure(err)
			}

			if c.Bool("raw") {
				_, err := c.App.Writer.Write(res.Chunk[:])
				return err
			}
			printStatus(c, res.Status)
			fmt.Fprintf(c.App.Writer, "%q\n", res.Chunk.Payload())
			return nil
		},
	}
}

func deleteCmd() *cli.Command {
	return &cli.Command{
		Name:      "delete",
		Usage:     "Remove a chunk from the store",
		ArgsUsage: "<address>",
		Action: func(c *cli.Context) error {
			addr, err := addressArg(c)
			if err != nil {
				return err
			}
			if err := newClient(c).Delete(c.Context, addr); err != nil {
				return failure(err)
			}
			fmt.Fprintln(c.App.Writer, "> deleted")
			return nil
		},
	}
}

func listCmd() *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List stored chunk addresses",
		Action: func(c *cli.Context) error {
			addrs, err := newClient(c).List(c.Context)
			if err != nil {
				return failure(err)
			}
			for _, addr := range addrs {
				fmt.Fprintln(c.App.Writer, addr)
			}
			return nil
		},
	}
}

func statCmd() *cli.Command {
	return &cli.Command{
		Name:      "stat",
		Usage:     "Show the store's write record for a chunk",
		ArgsUsage: "<address>",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "all", Usage: "List the records of every chunk"},
		},
		Action: func(c *cli.Context) error {
			if c.Bool("all") {
				records, err := newClient(c).Records(c.Context)
				if err != nil {
					return failure(err)
				}
				for _, rec := range records {
					fmt.Fprintf(c.App.Writer, "%s %d %d %s\n", rec.Address, rec.Size, rec.Writes, rec.LastWriteAt.Format(timeLayout))
				}
				return nil
			}

			addr, err := addressArg(c)
			if err != nil {
				return err
			}

			rec, err := newClient(c).Record(c.Context, addr)
			if err != nil {
				return failure(err)
			}

			w := c.App.Writer
			fmt.Fprintf(w, "address:    %s\n", rec.Address)
			fmt.Fprintf(w, "size:       %d\n", rec.Size)
			fmt.Fprintf(w, "writes:     %d\n", rec.Writes)
			fmt.Fprintf(w, "created:    %s\n", rec.CreatedAt.Format(timeLayout))
			fmt.Fprintf(w, "last write: %s\n", rec.LastWriteAt.Format(timeLayout))
			return nil
		},
	}
}

func addressCmd() *cli.Command {
	return &cli.Command{
		Name:      "address",
		Usage:     "Print the address a string would be stored under, without contacting the store",
		ArgsUsage: "<string>",
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return cli.Exit("usage: address <string>", exitUsage)
			}
			fmt.Fprintln(c.App.Writer, chunker.AddressOf(chunker.Encode([]byte(c.Args().First()))))
			return nil
		},
	}
}

package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/ndlib/chonk/chonk"
	"github.com/ndlib/chonk/store"
)

var (
	location = flag.String("s", "", "location of the store (file path, s3:, redis:, mysql:, or ql: URL)")
	usage    = `
chonk [-s location] <command> <command arguments>

Possible commands:
    list

    meta <collection id>

    get <collection id> <index>

    cat <collection id>

    push <collection id> [file]

    write <collection id> <chunk size> [file]

    append <collection id> <max chunk size> [file]

    remove <collection id> <index>

    clear <collection id>

push, write, and append read from stdin when no file is given.
`
)

func main() {
	flag.Parse()

	s := parselocation(*location)
	if s == nil {
		os.Exit(1)
	}

	args := flag.Args()

	if len(args) == 0 {
		fmt.Println(usage)
		return
	}

	var err error
	switch args[0] {
	case "list":
		err = dolist(s)
	case "meta":
		err = dometa(s, args[1:])
	case "get":
		err = doget(s, args[1:])
	case "cat":
		err = docat(s, args[1:])
	case "push":
		err = dopush(s, args[1:])
	case "write":
		err = dowrite(s, args[1:])
	case "append":
		err = doappend(s, args[1:])
	case "remove":
		err = doremove(s, args[1:])
	case "clear":
		err = doclear(s, args[1:])
	default:
		fmt.Println(usage)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// open the collection named by args[0]
func opencollection(s store.Store, args []string) (*chonk.Collection, error) {
	if len(args) < 1 {
		return nil, fmt.Errorf("missing collection id")
	}
	return chonk.Open(s, args[0])
}

// read the content for a write-style command: the file named by args[i],
// or stdin if args is too short.
func readinput(args []string, i int) ([]byte, error) {
	if len(args) > i {
		return os.ReadFile(args[i])
	}
	return io.ReadAll(os.Stdin)
}

func dolist(s store.Store) error {
	lister, ok := s.(store.Lister)
	if !ok {
		return fmt.Errorf("this store cannot list its contents")
	}
	// collection ids are whatever has a metadata record
	keys, err := lister.ListPrefix("md")
	if err != nil {
		return err
	}
	for _, key := range keys {
		fmt.Println(strings.TrimPrefix(key, "md"))
	}
	return nil
}

func dometa(s store.Store, args []string) error {
	c, err := opencollection(s, args)
	if err != nil {
		return err
	}
	meta, err := c.Meta()
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
	fmt.Fprintf(w, "Collection:\t%s\n", c.ID())
	fmt.Fprintf(w, "Count:\t%d\n", meta.Count)
	fmt.Fprintf(w, "Total Bytes:\t%d\n", meta.TotalBytes)
	fmt.Fprintf(w, "Version:\t%d\n", meta.Version)
	return w.Flush()
}

func doget(s store.Store, args []string) error {
	c, err := opencollection(s, args)
	if err != nil {
		return err
	}
	if len(args) < 2 {
		return fmt.Errorf("missing chunk index")
	}
	index, err := strconv.ParseUint(args[1], 10, 32)
	if err != nil {
		return err
	}
	chunk, found, err := c.Get(uint32(index))
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("no chunk at index %d", index)
	}
	_, err = os.Stdout.Write(chunk)
	return err
}

func docat(s store.Store, args []string) error {
	c, err := opencollection(s, args)
	if err != nil {
		return err
	}
	// stream chunk by chunk instead of Assemble, so large collections
	// don't need to fit in memory
	it, err := c.Iter()
	if err != nil {
		return err
	}
	for it.Next() {
		_, err = os.Stdout.Write(it.Chunk())
		if err != nil {
			return err
		}
	}
	return it.Err()
}

func dopush(s store.Store, args []string) error {
	c, err := opencollection(s, args)
	if err != nil {
		return err
	}
	data, err := readinput(args, 1)
	if err != nil {
		return err
	}
	index, err := c.Push(data)
	if err != nil {
		return err
	}
	fmt.Println(index)
	return nil
}

func dowrite(s store.Store, args []string) error {
	c, err := opencollection(s, args)
	if err != nil {
		return err
	}
	if len(args) < 2 {
		return fmt.Errorf("missing chunk size")
	}
	size, err := strconv.ParseUint(args[1], 10, 32)
	if err != nil {
		return err
	}
	content, err := readinput(args, 2)
	if err != nil {
		return err
	}
	return c.WriteChunked(content, uint32(size))
}

func doappend(s store.Store, args []string) error {
	c, err := opencollection(s, args)
	if err != nil {
		return err
	}
	if len(args) < 2 {
		return fmt.Errorf("missing max chunk size")
	}
	size, err := strconv.ParseUint(args[1], 10, 32)
	if err != nil {
		return err
	}
	content, err := readinput(args, 2)
	if err != nil {
		return err
	}
	return c.Append(content, uint32(size))
}

func doremove(s store.Store, args []string) error {
	c, err := opencollection(s, args)
	if err != nil {
		return err
	}
	if len(args) < 2 {
		return fmt.Errorf("missing chunk index")
	}
	index, err := strconv.ParseUint(args[1], 10, 32)
	if err != nil {
		return err
	}
	removed, found, err := c.Remove(uint32(index))
	if err != nil {
		return err
	}
	if !found {
		fmt.Printf("no chunk at index %d\n", index)
		return nil
	}
	fmt.Printf("removed %d bytes\n", len(removed))
	return nil
}

func doclear(s store.Store, args []string) error {
	c, err := opencollection(s, args)
	if err != nil {
		return err
	}
	return c.Clear()
}

// amjoin writes the given files to stdout (or -o) the same way amalgamate
// writes a merged header: a banner naming each file, then its lines minus
// local includes. Useful when the file list comes from somewhere else than
// a module directory walk.
package main

import (
	"bufio"
	"flag"
	"io"
	"os"

	"fortio.org/cli"
	"fortio.org/log"
	"github.com/ldemailly/amalgamate/amalgam"
)

var (
	outFlag    = flag.String("o", "", "Output `file` instead of stdout")
	includeFlg = flag.String("include", "", "Start the output with #include \"`name`\", as done for merged sources")
)

func main() {
	cli.ArgsHelp = "file1 [file2...]"
	cli.MinArgs = 1
	cli.MaxArgs = -1
	cli.Main()

	var w io.Writer = os.Stdout
	if *outFlag != "" {
		f, err := os.Create(*outFlag)
		if err != nil {
			log.Fatalf("Failed to create output file %q: %v", *outFlag, err)
		}
		defer f.Close()
		w = f
	}
	output := bufio.NewWriter(w)
	elided, err := join(output, amalgam.OS{}, *includeFlg, flag.Args())
	if err == nil {
		err = output.Flush()
	}
	if err != nil {
		log.Fatalf("%v", err)
	}
	log.Infof("Done, %d files, %d local includes elided.", flag.NArg(), elided)
}

func join(w io.Writer, fsys amalgam.FS, include string, files []string) (int, error) {
	if include != "" {
		if _, err := io.WriteString(w, "#include \""+include+"\"\n"); err != nil {
			return 0, err
		}
	}
	elided := 0
	for _, filename := range files {
		log.Infof("Processing file: %s", filename)
		n, err := amalgam.CopyFile(w, fsys, filename)
		elided += n
		if err != nil {
			return elided, err
		}
	}
	return elided, nil
}

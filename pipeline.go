package celeste

import (
	"bufio"
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/borogk/celeste/data"
)

type task struct {
	index       int
	source      string
	destination string
	rel         string
}

// scanDirectory returns the paths, relative to root, of every regular file
// with the given extension no more than depth levels below root.
func scanDirectory(root, extension string, depth int) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		level := 0
		if rel != "." {
			level = strings.Count(rel, string(filepath.Separator)) + 1
		}

		if d.IsDir() {
			// Anything inside would be too deep
			if level >= depth {
				return filepath.SkipDir
			}
			return nil
		}

		// Symbolic links and other special files are ignored
		if !d.Type().IsRegular() {
			return nil
		}

		if strings.HasSuffix(strings.ToLower(d.Name()), strings.ToLower(extension)) {
			files = append(files, rel)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

// destinationName swaps the extension of name, which is known to end in
// fromExt ignoring case.
func destinationName(name, fromExt, toExt string) string {
	return name[:len(name)-len(fromExt)] + toExt
}

func (c *Converter) findFiles(ctx context.Context, from, to string, files []string, fromExt, toExt string) <-chan task {
	out := make(chan task)
	go func() {
		defer close(out)
		for i, rel := range files {
			t := task{
				index:       i + 1,
				source:      filepath.Join(from, rel),
				destination: filepath.Join(to, filepath.Dir(rel), destinationName(filepath.Base(rel), fromExt, toExt)),
				rel:         rel,
			}
			select {
			case out <- t:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

func (c *Converter) fileWorker(ctx context.Context, in <-chan task, total int, convert ConvertFunc) <-chan error {
	errc := make(chan error, 1)
	go func() {
		defer close(errc)
		for t := range in {
			if ctx.Err() != nil {
				return
			}
			if err := c.convertFile(t, total, convert); err != nil {
				errc <- fmt.Errorf("%s: %w", t.source, err)
				return
			}
		}
	}()
	return errc
}

func (c *Converter) upToDate(t task, sum string) (bool, error) {
	if !c.options.Incremental || c.options.Manifest == nil {
		return false, nil
	}
	e, err := c.options.Manifest.Find(t.source)
	if err != nil {
		return false, err
	}
	if e == nil || e.SHA1 != sum || e.Destination != t.destination {
		return false, nil
	}
	// A destination written with different palette reduction is stale
	if e.Colors != c.options.Colors {
		return false, nil
	}
	return exists(t.destination), nil
}

func (c *Converter) convertFile(t task, total int, convert ConvertFunc) (err error) {
	var sum string
	if c.options.Manifest != nil {
		if sum, err = sha1File(t.source); err != nil {
			return err
		}
		skip, err := c.upToDate(t, sum)
		if err != nil {
			return err
		}
		if skip {
			c.progress.Skip(t.rel)
			return nil
		}
	}

	c.progress.File(t.index, total, t.rel)

	if err := os.MkdirAll(filepath.Dir(t.destination), 0o755); err != nil {
		return err
	}

	in, err := os.Open(t.source)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(t.destination)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := out.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	w := bufio.NewWriter(out)
	config, err := convert(bufio.NewReader(in), w)
	if err != nil {
		return err
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if c.options.Manifest != nil {
		return c.options.Manifest.Record(Entry{
			Source:      t.source,
			Destination: t.destination,
			SHA1:        sum,
			Config:      config,
			Colors:      c.options.Colors,
		})
	}

	return nil
}

// waitForPipeline drains every error channel, cancelling the pipeline on the
// first error, which is returned.
func waitForPipeline(cancel context.CancelFunc, errs ...<-chan error) error {
	var first error
	for err := range mergeErrors(errs...) {
		if err != nil && first == nil {
			first = err
			cancel()
		}
	}
	return first
}

func mergeErrors(cs ...<-chan error) <-chan error {
	var wg sync.WaitGroup
	out := make(chan error, len(cs))
	wg.Add(len(cs))
	for _, c := range cs {
		go func(c <-chan error) {
			for n := range c {
				out <- n
			}
			wg.Done()
		}(c)
	}
	go func() {
		wg.Wait()
		close(out)
	}()
	return out
}

// Convert converts every file under from ending in fromExt, writing the
// result under the same relative path beneath to with the extension
// replaced by toExt. The first failure stops the conversion.
func (c *Converter) Convert(from, to, fromExt, toExt string, convert ConvertFunc) error {
	from, err := filepath.Abs(from)
	if err != nil {
		return err
	}
	// The walk does not descend into a root that is itself a symbolic link
	root, err := filepath.EvalSymlinks(from)
	if err != nil {
		return err
	}
	to, err = filepath.Abs(to)
	if err != nil {
		return err
	}

	info, err := os.Stat(root)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s: not a directory", from)
	}

	files, err := scanDirectory(root, fromExt, c.options.Depth)
	if err != nil {
		return err
	}

	c.progress.Start(from, to, len(files))

	ctx, cancelFunc := context.WithCancel(context.Background())
	defer cancelFunc()

	var errcList []<-chan error

	tasks := c.findFiles(ctx, from, to, files, fromExt, toExt)

	for i := 0; i < c.options.Jobs; i++ {
		errcList = append(errcList, c.fileWorker(ctx, tasks, len(files), convert))
	}

	return waitForPipeline(cancelFunc, errcList...)
}

// DataToImages converts a tree of DATA files to format f.
func (c *Converter) DataToImages(from, to string, f Format) error {
	c.logger.Printf("Converting DATA -> %s\n", f)
	return c.Convert(from, to, data.Extension, f.Extension, c.DataToImage(f))
}

// ImagesToData converts a tree of images in format f to DATA.
func (c *Converter) ImagesToData(from, to string, f Format) error {
	c.logger.Printf("Converting %s -> DATA\n", f)
	return c.Convert(from, to, f.Extension, data.Extension, c.ImageToData(f))
}

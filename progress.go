package celeste

import "log"

// Progress receives notifications as a directory tree is converted.
// Notifications for different files may arrive concurrently when converting
// with more than one job.
type Progress interface {
	// Start is called once the files to convert are known
	Start(from, to string, total int)
	// File is called before converting the index'th file, counting from 1
	File(index, total int, path string)
	// Skip is called for files left untouched by an incremental run
	Skip(path string)
}

type logProgress struct {
	logger *log.Logger
}

// LogProgress returns a Progress that writes to logger.
func LogProgress(logger *log.Logger) Progress {
	return logProgress{logger: logger}
}

func (p logProgress) Start(from, to string, total int) {
	p.logger.Printf("From directory: %s\n", from)
	p.logger.Printf("To directory: %s\n", to)
	p.logger.Printf("%d files to convert\n", total)
}

func (p logProgress) File(index, total int, path string) {
	p.logger.Printf("[%d/%d] converting %s\n", index, total, path)
}

func (p logProgress) Skip(path string) {
	p.logger.Printf("Skipping unchanged %s\n", path)
}

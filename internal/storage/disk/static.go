package disk

import (
	"io/fs"
	"net/http"
	"os"
)

// Handler serves stored images read-only under /<prefix>/. Directory listings are not served.
func (s *ImageStore) Handler() http.Handler {
	return http.StripPrefix("/"+s.prefix+"/", http.FileServer(filesOnly{http.Dir(s.dir)}))
}

type filesOnly struct {
	fs http.FileSystem
}

func (f filesOnly) Open(name string) (http.File, error) {
	file, err := f.fs.Open(name)
	if err != nil {
		return nil, err
	}
	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, err
	}
	if info.IsDir() {
		file.Close()
		return nil, &fs.PathError{Op: "open", Path: name, Err: os.ErrNotExist}
	}
	return file, nil
}

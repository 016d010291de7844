package helpers

import (
	"fmt"
	"os"
	"path/filepath"

	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
	"golang.org/x/sys/unix"
)

// ReadDataFile returns the full content of a data file. Non-empty files are
// memory mapped and copied out before the mapping is released.
func ReadDataFile(filePath string) ([]byte, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("error opening data file %s: %w", filePath, err)
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("error reading stats of %s: %w", filePath, err)
	}
	if stat.IsDir() {
		return nil, fmt.Errorf("data file %s is a directory", filePath)
	}

	fileSize := int(stat.Size())
	if fileSize == 0 {
		// mmap refuses zero length mappings
		return []byte{}, nil
	}

	data, err := unix.Mmap(int(file.Fd()), 0, fileSize, unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return nil, fmt.Errorf("failed to memory map %s: %w", filePath, err)
	}
	defer unix.Munmap(data)

	content := make([]byte, len(data))
	copy(content, data)
	return content, nil
}

// WriteDataFile replaces the content of a data file, creating it if needed.
func WriteDataFile(filePath string, content []byte) error {
	if err := os.WriteFile(filePath, content, 0644); err != nil {
		return fmt.Errorf("error writing data file %s: %w", filePath, err)
	}
	return nil
}

// FileExists checks if a file exists and is not a directory
func FileExists(filename string, logger *zap.SugaredLogger) bool {
	info, err := os.Stat(filename)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Infof("Error checking file %s for existence: %s", filename, err)
		}
		return false
	}

	return !info.IsDir()
}

// DirExists checks if a path exists and is a directory
func DirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// IsHidden reports whether the base name of path starts with a dot.
func IsHidden(path string) bool {
	base := filepath.Base(path)
	return len(base) > 0 && base[0] == '.'
}

func EncodeBSON(data map[string]interface{}) ([]byte, error) {
	bsonData, err := bson.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("error encoding BSON: %w", err)
	}
	return bsonData, nil
}

func DecodeBSON(bsonData []byte) (map[string]interface{}, error) {
	var decodedData map[string]interface{}
	if err := bson.Unmarshal(bsonData, &decodedData); err != nil {
		return nil, fmt.Errorf("error decoding BSON: %w", err)
	}
	return decodedData, nil
}

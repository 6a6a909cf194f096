package file

import "os"

func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil || os.IsExist(err)
}

func CheckNotExist(path string) bool {
	_, err := os.Stat(path)
	return os.IsNotExist(err)
}

func IsNotExistMkDir(path string) error {
	if CheckNotExist(path) {
		return MkDir(path)
	}

	return nil
}

func MkDir(path string) error {
	return os.MkdirAll(path, os.ModePerm)
}

func RMDir(path string) error {
	return os.RemoveAll(path)
}

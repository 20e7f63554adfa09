// Copyright © 2024 Rak Laptudirm <rak@laptudirm.com>
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package common

import (
	_ "embed"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
)

const FilePermissions = 0755

//go:embed ladder.yaml
var BaseConfigFile []byte

var (
	Directory = filepath.Join(xdg.Home, "ladder")

	GamesDirectory = filepath.Join(Directory, "games")
	LogsDirectory  = filepath.Join(Directory, "logs")

	ConfigFile = filepath.Join(Directory, "ladder.yaml")
)

func TryMkdir(dir string) {
	if _, err := os.Stat(dir); errors.Is(err, fs.ErrNotExist) {
		_ = os.MkdirAll(dir, FilePermissions)
	}
}

func TryCreate(file string, data []byte) {
	if _, err := os.Stat(file); errors.Is(err, fs.ErrNotExist) {
		_ = os.WriteFile(file, data, 0644)
	}
}

// Setup creates the ladder directories and the default configuration file
// if they don't exist yet.
func Setup() {
	TryMkdir(Directory)
	TryMkdir(GamesDirectory)
	TryMkdir(LogsDirectory)

	TryCreate(ConfigFile, BaseConfigFile)
}

/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package crash

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func silenceStderr(t *testing.T) {
	t.Helper()
	null, err := os.OpenFile(os.DevNull, os.O_WRONLY, 0)
	if err != nil {
		t.Fatalf("open devnull: %v", err)
	}
	old := os.Stderr
	os.Stderr = null
	t.Cleanup(func() {
		os.Stderr = old
		_ = null.Close()
	})
}

func stubExit(t *testing.T) *int {
	t.Helper()
	code := -1
	old := exitFn
	exitFn = func(c int) { code = c }
	t.Cleanup(func() { exitFn = old })
	return &code
}

func TestRecoverWritesReportAndExits(t *testing.T) {
	silenceStderr(t)
	code := stubExit(t)
	info := &Info{
		Dir:    filepath.Join(t.TempDir(), "crashes"),
		Fields: func() []Field { return []Field{{"Zoom", "150%"}} },
	}

	func() {
		defer Recover(info)
		panic("surface lost")
	}()

	if *code != 2 {
		t.Fatalf("exit code = %d, want 2", *code)
	}
	matches, _ := filepath.Glob(filepath.Join(info.Dir, "crash-*.log"))
	if len(matches) != 1 {
		t.Fatalf("reports = %v", matches)
	}
	b, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	for _, want := range []string{"Panic: surface lost", "Zoom: 150%", "Stack:"} {
		if !strings.Contains(string(b), want) {
			t.Fatalf("report lacks %q:\n%s", want, b)
		}
	}
}

func TestRecoverWithoutPanicDoesNothing(t *testing.T) {
	code := stubExit(t)
	dir := t.TempDir()
	func() {
		defer Recover(&Info{Dir: dir})
	}()
	if *code != -1 {
		t.Fatalf("exit called with %d", *code)
	}
	if entries, _ := os.ReadDir(dir); len(entries) != 0 {
		t.Fatalf("unexpected report files: %d", len(entries))
	}
}

// Copyright 2025 Zintix Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"fmt"
	"os"
)

func main() {
	exeCmd()
}

func exeCmd() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: go run ./scripts [test|test-race|test-detail|sweep|profile]")
		os.Exit(1)
	}
	selectTask(os.Args[1], os.Args[2:])
}

func selectTask(task string, args []string) {
	switch task {
	case "test":
		runTest()
	case "test-race":
		runTestRace()
	case "test-detail":
		runTestDetail()
	case "sweep":
		runSweep(args)
	case "profile":
		runProfile(args)
	default:
		PrintYellow(fmt.Sprintf("Unknown task: %s", task))
		os.Exit(1)
	}
}

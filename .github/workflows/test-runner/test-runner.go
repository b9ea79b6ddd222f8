// test-runner runs a command as a subprocess and scans its output for the
// test binary's verdict. Emulators don't exit when the ROM is done, so the
// subprocess is sent a SIGINT shortly after PASS or FAIL was seen. The exit
// code is 0 if all tests passed, otherwise 1.
package main

import (
	"bufio"
	"log"
	"os"
	"os/exec"
	"strings"
	"syscall"
	"time"
)

func main() {
	log.Default().SetFlags(0)
	cmd := exec.Command(os.Args[1], os.Args[2:]...)
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		log.Fatal("open stdout:", err)
	}
	if err := cmd.Start(); err != nil {
		log.Fatal("start command:", err)
	}

	scanner := bufio.NewScanner(stdout)
	exiting := false
	code := 0
	for scanner.Scan() {
		line := scanner.Text()
		log.Println(line)
		if exiting {
			continue
		}
		switch {
		case strings.HasPrefix(line, "fatal error:"), strings.HasPrefix(line, "panic:"):
			fallthrough
		case line == "FAIL":
			exiting = true
			code = 1
			go exitCmd(cmd)
		case line == "PASS":
			exiting = true
			go exitCmd(cmd)
		}
	}
	cmd.Wait()
	os.Exit(code)
}

func exitCmd(cmd *exec.Cmd) {
	// Leave the emulator some time to print a stacktrace.
	time.Sleep(500 * time.Millisecond)
	syscall.Kill(-cmd.Process.Pid, syscall.SIGINT)
}

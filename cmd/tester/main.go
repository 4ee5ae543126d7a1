package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"
)

var exit1 = flag.Bool("exit1", false, "print the first prompt and exit with exit code 1 without reading an answer")
var sleep = flag.Bool("sleep", false, "sleep for an hour, basically never return unless interrupted")
var fillBuffer = flag.Bool("fill-buffer", false, "print a string with 10,000 characters before prompting")
var stutter = flag.Bool("stutter", false, "print 20 messages with 50 ms delays before prompting")

const keyDown = "\x1b[B"

var regions = []string{
	"us-east-1", "us-east-2", "us-west-2", "eu-west-1", "eu-west-2", "eu-central-1",
	"ap-northeast-1", "ap-northeast-2", "ap-southeast-1", "ap-southeast-2", "ap-south-1",
}

var profileActions = []string{"cancel", "update", "remove"}

var stdin = bufio.NewReader(os.Stdin)

// exitAt makes the program exit with exit code 1 at the first prompt containing it
var exitAt = os.Getenv("TESTER_EXIT_AT")

// tester is an interactive program driven by the tests:
//
//	tester                     asks for a name and greets it
//	tester configure           sets up a user: region, credentials and profile name
//	tester configure project   initializes the project in the working directory
func main() {
	c := make(chan os.Signal, 1)
	defer close(c)
	signal.Notify(c, os.Interrupt)

	flag.Parse()

	if *sleep {
		fmt.Println("going to sleep")
		/* Only necessary to watch for an interrupt on Windows, on Linux&MacOS
		 * the interrupt signal would always break the control flow.
		 */
		select {
		case <-time.After(1 * time.Hour):
			fmt.Println("returning after an hour, this will never happen")
		case sig := <-c:
			fmt.Printf("received %v\n", sig)
			os.Exit(123)
		}
	}

	if *fillBuffer {
		os.Stdout.Write([]byte(strings.Repeat("a", 1e4) + "\n"))
	}

	if *stutter {
		for i := 0; i < 20; i++ {
			fmt.Printf("stuttered %d times\n", i+1)
			time.Sleep(50 * time.Millisecond)
		}
	}

	var err error
	switch strings.Join(flag.Args(), " ") {
	case "":
		err = greet()
	case "configure":
		err = configure()
	case "configure project":
		err = configureProject()
	default:
		err = fmt.Errorf("unknown command: %s", strings.Join(flag.Args(), " "))
	}
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}

func prompt(msg string) (string, error) {
	fmt.Print(msg)
	if *exit1 || (exitAt != "" && strings.Contains(msg, exitAt)) {
		os.Exit(1)
	}
	line, err := stdin.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("could not read answer to %q: %w", msg, err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// choose lists options and returns the one the answer moved the cursor to
func choose(msg string, options []string) (string, error) {
	fmt.Println(msg)
	for i, option := range options {
		cursor := " "
		if i == 0 {
			cursor = ">"
		}
		fmt.Printf("%s %s\n", cursor, option)
	}
	line, err := prompt("")
	if err != nil {
		return "", err
	}
	index := strings.Count(line, keyDown)
	if index >= len(options) {
		return "", fmt.Errorf("cursor moved past the last option")
	}
	fmt.Printf("Selected %s\n", options[index])
	return options[index], nil
}

func greet() error {
	name, err := prompt("Enter name: ")
	if err != nil {
		return err
	}
	fmt.Printf("hello %s\n", name)
	return nil
}

func configure() error {
	fmt.Println("Sign in to your AWS administrator account:")
	if _, err := prompt("Press Enter to continue "); err != nil {
		return err
	}
	if _, err := choose("Specify the AWS Region", regions); err != nil {
		return err
	}
	if _, err := prompt("Specify the user name: "); err != nil {
		return err
	}
	if _, err := prompt("Complete the user creation in the console. Press Enter to continue "); err != nil {
		return err
	}
	for _, name := range []string{"accessKeyId", "secretAccessKey"} {
		value, err := prompt(name + ": ")
		if err != nil {
			return err
		}
		if value == "" {
			return fmt.Errorf("%s cannot be empty", name)
		}
	}
	profile, err := prompt("Profile Name: ")
	if err != nil {
		return err
	}
	if profile == "" {
		return fmt.Errorf("profile name cannot be empty")
	}
	fmt.Println("Successfully set up the new user.")
	return nil
}

func configureProject() error {
	wd, err := os.Getwd()
	if err != nil {
		return err
	}
	fmt.Printf("Project directory: %s\n", wd)

	for _, msg := range []string{
		"Enter a name for the project",
		"Choose your default editor:",
		"Choose the type of app that you're building",
		"What javascript framework are you using",
		"Source Directory Path:",
		"Distribution Directory Path:",
		"Build Command:",
		"Start Command:",
	} {
		if _, err := prompt(msg + " "); err != nil {
			return err
		}
	}

	containers, err := prompt("Do you want to enable container-based deployments? (y/N) ")
	if err != nil {
		return err
	}
	fmt.Printf("Container-based deployments: %v\n", containers == "y")

	action, err := choose("Do you want to update or remove the project level AWS profile?", profileActions)
	if err != nil {
		return err
	}
	if action != "cancel" {
		return fmt.Errorf("profile %s is not supported", action)
	}
	fmt.Println("Successfully made configuration changes to your project.")
	return nil
}

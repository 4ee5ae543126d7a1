package scenario

import (
	"context"

	"github.com/ActiveState/termchain"
)

// ProfileOptions lists the choices of the project level profile prompt
var ProfileOptions = []string{"cancel", "update", "remove"}

// Configure walks through the configure subcommand, setting up a new user with the given credentials. The
// credentials are kept out of the transcript.
func Configure(ctx context.Context, launcher *termchain.Launcher, settings ConfigureSettings) error {
	s := settings.WithDefaults()
	if err := s.Validate(); err != nil {
		return err
	}

	return launcher.Spawn([]string{"configure"}, termchain.OptStripColors(true)).
		Wait("Sign in to your AWS administrator account:").
		Wait("Press Enter to continue").
		SendCarriageReturn().
		Wait("Specify the AWS Region").
		Select(s.Region, RegionOptions).
		Wait("user name:").
		SendCarriageReturn().
		Wait("Press Enter to continue").
		SendCarriageReturn().
		Wait("accessKeyId").
		PauseRecording().
		SendLine(s.AccessKeyID).
		Wait("secretAccessKey").
		SendLine(s.SecretAccessKey).
		ResumeRecording().
		Wait("Profile Name:").
		SendLine(s.ProfileName).
		Wait("Successfully set up the new user.").
		Execute(ctx)
}

// ConfigureProject walks through the configure project subcommand in settings.Dir, accepting every default and
// keeping the project level profile
func ConfigureProject(ctx context.Context, launcher *termchain.Launcher, settings ProjectSettings) error {
	if err := settings.Validate(); err != nil {
		return err
	}

	chain := launcher.Spawn([]string{"configure", "project"}, termchain.OptDir(settings.Dir), termchain.OptStripColors(true)).
		Wait("Enter a name for the project").
		SendCarriageReturn().
		Wait("Choose your default editor:").
		SendCarriageReturn().
		Wait("Choose the type of app that you're building").
		SendCarriageReturn().
		Wait("What javascript framework are you using").
		SendCarriageReturn().
		Wait("Source Directory Path:").
		SendCarriageReturn().
		Wait("Distribution Directory Path:").
		SendCarriageReturn().
		Wait("Build Command:").
		SendCarriageReturn().
		Wait("Start Command:").
		SendCarriageReturn().
		Wait("Do you want to enable container-based deployments?")

	if settings.EnableContainers {
		chain.SendConfirmYes()
	} else {
		chain.SendConfirmNo()
	}

	return chain.
		Wait("Do you want to update or remove the project level AWS profile?").
		Select(ProfileOptions[0], ProfileOptions).
		Wait("Successfully made configuration changes to your project.").
		Execute(ctx)
}

package platform_test

import (
	"context"
	"fmt"
	"log"

	"github.com/ZebulonRouseFrantzich/leaf/internal/platform"
)

func ExampleDetector_Detect() {
	detector := platform.NewDetector()
	info, err := detector.Detect(context.Background())
	if err != nil {
		log.Fatal(err)
	}

	fmt.Printf("Platform: %s\n", info.Key)

	if distro := info.GetDistro(); distro != nil {
		fmt.Printf("Distribution: %s (%s family)\n", distro.ID, distro.Family)
	}
}

func ExampleKeyFor() {
	key, err := platform.KeyFor("darwin", "arm64")
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(key)
	// Output: macos-aarch64
}

func ExampleKey_IsWindows() {
	fmt.Println(platform.WindowsX8664.IsWindows())
	fmt.Println(platform.LinuxX8664.IsWindows())
	// Output:
	// true
	// false
}

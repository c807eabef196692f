package main

import (
	"encoding/xml"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/avast/apkverifier"
	"github.com/droidbin/axml"
)

func main() {
	isApk := flag.Bool("a", false, "the input file is an apk")
	verify := flag.Bool("verify", false, "verify the APK signature (apk input only)")

	flag.Parse()

	if len(flag.Args()) != 1 {
		fmt.Printf("%s [-a] [-verify] INPUT\n", os.Args[0])
		os.Exit(1)
	}

	input := flag.Args()[0]
	if strings.HasSuffix(input, ".apk") {
		*isApk = true
	}

	var doc *axml.Document
	var err error
	switch {
	case input == "-":
		var data []byte
		if data, err = io.ReadAll(os.Stdin); err == nil {
			doc, err = axml.Decode(data)
		}
	case *isApk:
		doc, err = axml.DecodeApk(input)
	default:
		var data []byte
		if data, err = os.ReadFile(input); err == nil {
			doc, err = axml.Decode(data)
		}
	}

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	enc := xml.NewEncoder(os.Stdout)
	enc.Indent("", "    ")
	if err := axml.EncodeDoc(doc, enc); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	fmt.Println()

	if *verify {
		if !*isApk {
			fmt.Fprintln(os.Stderr, "-verify requires an apk input")
			os.Exit(1)
		}
		verifyApk(input)
	}
}

func verifyApk(path string) {
	res, err := apkverifier.Verify(path, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "signature verification failed: %s\n", err.Error())
		os.Exit(1)
	}

	fmt.Fprintf(os.Stderr, "verification scheme used: v%d\n", res.SigningSchemeId)

	cert, _ := apkverifier.PickBestApkCert(res.SignerCerts)
	if cert == nil {
		fmt.Fprintln(os.Stderr, "no certificate found")
		return
	}
	fmt.Fprintf(os.Stderr, "subject: %s\n", cert.Subject)
	fmt.Fprintf(os.Stderr, "issuer:  %s\n", cert.Issuer)
	fmt.Fprintf(os.Stderr, "sha256:  %s\n", cert.Sha256)
}

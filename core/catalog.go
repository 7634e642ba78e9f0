package core

import (
	"fmt"

	"pkt.systems/hackterm/schema"
)

// Catalog holds every piece of canned text the terminal shows.
type Catalog struct {
	Title        string
	Tagline      string
	Welcome      []string
	Info         string
	NotFound     string
	NotFoundHint string
	Hints        []string
	Footer       string
	MatrixFooter string
	Placeholder  string
	Outputs      map[schema.CommandID][]string
}

// DefaultCatalog returns the built-in English catalog.
func DefaultCatalog() Catalog {
	return Catalog{
		Title:   "SECURE_TERMINAL_v2.0",
		Tagline: "Cybersecurity Engineer | Penetration Testing | Network Security Specialist",
		Welcome: []string{
			"████████████████████████████████████████████████████",
			"██  CYBERSECURITY ENGINEER TERMINAL INTERFACE  ██",
			"████████████████████████████████████████████████████",
		},
		Info:         "Type \"help\" to list available commands",
		NotFound:     "Command not found: %s",
		NotFoundHint: "Type \"help\" for available commands",
		Hints:        []string{"help", "portfolio", "skills", "recognize"},
		Footer:       "[Secure Terminal] Ready for your commands. Stay paranoid, stay safe.",
		MatrixFooter: "[MATRIX MODE ACTIVE] There is no spoon.",
		Placeholder:  "Type command...",
		Outputs: map[schema.CommandID][]string{
			schema.CommandHelp: {
				"Available commands:",
				"─────────────────────────────────────────────",
				"whoami              Display identity information",
				"portfolio           Show projects and experience",
				"skills              List technical expertise",
				"ctf                 Interactive CTF challenges",
				"hack-game           Start interactive exploit demo",
				"scan                Run vulnerability scanner",
				"matrix              Activate matrix mode",
				"easteregg           Find hidden content (hint: try \"recognize\")",
				"contact             Display contact information",
				"clear               Clear terminal",
				"exit                Close terminal",
				"─────────────────────────────────────────────",
			},
			schema.CommandWhoami: {
				"[+] Identity Information:",
				"    Name: Security Engineer",
				"    Role: Penetration Tester & Network Security Specialist",
				"    Status: Active",
				"    Threat Level: DANGEROUS ⚠️",
				"    Specialization: Network Exploitation, Web Security, Dark Web Research",
			},
			schema.CommandPortfolio: {
				"[+] SECURITY PROJECTS:",
				"",
				"1. Advanced Vulnerability Scanner",
				"   └─ Automated detection of CVSS 9.0+ vulnerabilities",
				"   └─ Tech: Python, Selenium, PostgreSQL",
				"",
				"2. Penetration Testing Framework",
				"   └─ Custom toolkit for full-cycle security assessments",
				"   └─ Tech: Bash, Python, Metasploit Integration",
				"",
				"3. Network IDS System",
				"   └─ Real-time intrusion detection with anomaly analysis",
				"   └─ Tech: C, TensorFlow, Packet Analysis",
				"",
				"4. Cryptanalysis Tools",
				"   └─ Breaking encryption through frequency analysis",
				"   └─ Tech: Python, Cryptography, Statistics",
				"",
				"5. Dark Web Intelligence Platform",
				"   └─ Market monitoring and threat intelligence",
				"   └─ Tech: Tor, Python, Data Science",
			},
			schema.CommandSkills: {
				"[+] TECHNICAL SKILLS:",
				"",
				"🔓 Penetration Testing:",
				"   • Nmap • Burp Suite • Metasploit • SQLmap • Hashcat",
				"",
				"🌐 Network Security:",
				"   • Wireshark • Snort/Suricata • IDS/IPS • VPN • BGP",
				"",
				"💻 Programming:",
				"   • Python (Expert) • Bash/Shell • C • Go • JavaScript",
				"",
				"☁️ Cloud Security:",
				"   • AWS • Azure • GCP • Kubernetes • Container Security",
				"",
				"🔐 Advanced:",
				"   • Cryptography • Reverse Engineering • Malware Analysis",
				"",
				"[+] CERTIFICATIONS:",
				"    ✓ OSCP (Offensive Security Certified Professional)",
				"    ✓ CEH (Certified Ethical Hacker)",
				"    ✓ GPEN (GIAC Penetration Tester)",
				"    ✓ Security+ (CompTIA)",
			},
			schema.CommandCTF: {
				"[+] CTF CHALLENGE MODE ACTIVATED",
				"",
				"Challenge 1: Port Enumeration",
				"  $ nmap -sV -p- target.internal",
				"  └─ Which 3 ports are open? (Answer: 22,80,443)",
				"",
				"Challenge 2: SQL Injection",
				"  $ sqlmap -u \"http://target/login\" --dbs",
				"  └─ Extract admin password? (Try: admin' OR '1'='1)",
				"",
				"Challenge 3: Privilege Escalation",
				"  $ sudo -l",
				"  └─ Find SUID binaries and exploit",
				"",
				"[?] Type \"exploit-test\" to run an interactive demo",
			},
			schema.CommandHackGame: {
				"[!] INITIATING LIVE EXPLOIT SEQUENCE...",
				"    Scanning target: 192.168.1.105",
				"    Payload type: Reverse Shell",
				"    Encoding: Shikata Ga Nai",
				"",
				"[*] Building payload...",
				"    [████████████████████] 100%",
				"",
				"[+] Exploit sent successfully!",
				"[+] Reverse shell established!",
				"[+] UID: 0 (root access granted)",
				"",
				"[✓] System compromised in 2.34 seconds",
				"[!] WARNING: This is a simulation for educational purposes only",
			},
			schema.CommandScan: {
				"[*] Vulnerability scan initiated...",
				"[*] Scanning in background...",
			},
			schema.CommandMatrix: {
				"▓▓▓▓▓▓▓▓▓▓▓▓▓▓▓▓▓▓▓▓▓▓▓▓▓▓▓",
				"█ M A T R I X   M O D E   █",
				"▓▓▓▓▓▓▓▓▓▓▓▓▓▓▓▓▓▓▓▓▓▓▓▓▓▓▓",
				"",
				"There is no spoon... 🥄",
				"",
				"But there ARE vulnerabilities everywhere.",
				"Look closer. Type \"recognize\" if you understand.",
			},
			schema.CommandRecognize: {
				"[✓] Ah, you recognize the reference...",
				"",
				"╔════════════════════════════════════════════╗",
				"║  \"Hello, friend. You're not alone.\"        ║",
				"║  - Mr. Robot (Elliot Alderson)             ║",
				"╚════════════════════════════════════════════╝",
				"",
				"[+] EASTER EGG UNLOCKED: Mr. Robot Connection Established",
				"",
				"The world is not what you see. FSociety was right.",
				"Corporations control everything. We only fight back.",
				"",
				"[!] Access to hidden terminal mode: GRANTED",
				"[!] Type \"fsociety\" to reveal more...",
			},
			schema.CommandFsociety: {
				"    ___________________________",
				"   /                          /",
				"  /  F S O C I E T Y        /",
				" /  We are the ones who talk back /",
				"/____________________________/",
				"",
				"[!] ENCRYPTED MESSAGE INCOMING:",
				"",
				"Power corrupts. Absolute power corrupts absolutely.",
				"They want us to be passive. To accept their systems.",
				"",
				"But every system has a vulnerability.",
				"Every network has a backdoor.",
				"Every corporation has secrets.",
				"",
				"[+] Your mission, should you choose to accept it:",
				"    Find the exploits. Expose the truth. Take them down.",
				"",
				"[✓] This terminal is now your weapon. Use it wisely.",
				"[!] Remember: You're either a ghost in the machine, or you're nothing.",
			},
			schema.CommandContact: {
				"[+] CONTACT INFORMATION:",
				"",
				"📧 Email: security@protonmail.com",
				"🔗 GitHub: github.com/cybersecurity-engineer",
				"🎮 HackTheBox: Profile: Elite Hacker",
				"🌐 LinkedIn: linkedin.com/in/cybersec-expert",
				"",
				"[+] AVAILABILITY:",
				"    ✓ Open to: Penetration Testing | Bug Bounty | Security Consulting",
				"    ✓ Response Time: 2-4 hours (encrypted communication preferred)",
				"    ✓ Rate: Negotiable for interesting projects",
			},
			schema.CommandExit: {
				"Closing connection...",
				"[+] Session terminated.",
				"Goodbye, friend.",
			},
		},
	}
}

// Clone returns a deep copy so overrides never alias the defaults.
func (c Catalog) Clone() Catalog {
	out := c
	out.Welcome = append([]string(nil), c.Welcome...)
	out.Hints = append([]string(nil), c.Hints...)
	out.Outputs = make(map[schema.CommandID][]string, len(c.Outputs))
	for id, lines := range c.Outputs {
		out.Outputs[id] = append([]string(nil), lines...)
	}
	return out
}

// WelcomeTranscript returns the lines a new session starts with.
func (c Catalog) WelcomeTranscript() []schema.TranscriptLine {
	lines := make([]schema.TranscriptLine, 0, len(c.Welcome)+1)
	for _, text := range c.Welcome {
		lines = append(lines, schema.TranscriptLine{Kind: schema.LineWelcome, Text: text})
	}
	if c.Info != "" {
		lines = append(lines, schema.TranscriptLine{Kind: schema.LineInfo, Text: c.Info})
	}
	return lines
}

// FooterFor returns the footer shown for the given matrix state.
func (c Catalog) FooterFor(matrix bool) string {
	if matrix {
		return c.MatrixFooter
	}
	return c.Footer
}

func (c Catalog) notFound(normalized string) []string {
	return []string{fmt.Sprintf(c.NotFound, normalized), c.NotFoundHint}
}

func (c Catalog) output(id schema.CommandID) []string {
	return append([]string(nil), c.Outputs[id]...)
}

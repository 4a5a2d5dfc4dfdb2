package frontend

// APIHeader is the VM API header that main.go prepends to the user's
// sources on every compilation; there is no option to leave it out, and a
// source that declares one of its enumerators again is rejected as a
// redeclaration. It holds extern function prototypes naming the VM's opaque
// API opcodes, plus the enumerators the daemon documents alongside them
// (e.g. PI_INIT_FAILED).
// Declared, never defined — each prototype binds straight to its opcode
// (§4.1) rather than lowering through CALL.
const APIHeader = `
enum {
	PI_INIT_FAILED = -1,
	PI_BAD_GPIO = -2,
	PI_BAD_LEVEL = -3,
	PI_BAD_MODE = -4
};

extern int READ(int gpio);
extern void WRITE(int gpio, int level);
extern void MODE(int gpio, int mode);
extern void PUD(int gpio, int pud);
extern void DELAY(int micros);
extern int MILLIS();
extern int MICROS();
extern void SERVO(int gpio, int pulsewidth);
extern void PWM(int gpio, int dutycycle);
`
